// Package compare times ECDH on both arithmetic backends against classical
// Diffie-Hellman.
package compare

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/smallyu/go-ecdh/internal/crypto/curves"
	"github.com/smallyu/go-ecdh/internal/crypto/ec"
	"github.com/smallyu/go-ecdh/internal/logging"
	"github.com/smallyu/go-ecdh/internal/protocol/dh"
	"github.com/smallyu/go-ecdh/internal/protocol/ecdh"
)

// Measurement is the cost of a number of complete two-party exchanges.
type Measurement struct {
	Name       string
	Iterations int
	Elapsed    time.Duration
	// Inversions is only meaningful for ECDH.
	Inversions uint64
}

// PerExchange is the mean time of one exchange.
func (m Measurement) PerExchange() time.Duration {
	if m.Iterations == 0 {
		return 0
	}
	return m.Elapsed / time.Duration(m.Iterations)
}

type Report struct {
	Curve        string
	DHBits       int
	Measurements []Measurement
}

func (r *Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "curve %s, classical DH over %d bits\n", r.Curve, r.DHBits)
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "scheme\texchanges\ttotal\tper exchange\tinversions")
	for _, m := range r.Measurements {
		inv := "-"
		if strings.HasPrefix(m.Name, "ecdh/") {
			inv = fmt.Sprint(m.Inversions)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", m.Name, m.Iterations, m.Elapsed, m.PerExchange(), inv)
	}
	w.Flush()
	return sb.String()
}

// Runner runs measurements. The zero value uses the real clock,
// crypto/rand and logging.Logger.
type Runner struct {
	Clock  clockwork.Clock
	Rand   io.Reader
	Logger logrus.FieldLogger
	// Search bounds the safe prime search for Compare. The zero value
	// means dh.DefaultSearchConfig.
	Search dh.SearchConfig
	// Metrics, if set, collects the arithmetic counters.
	Metrics *ec.Metrics
}

func (r *Runner) clock() clockwork.Clock {
	if r.Clock == nil {
		return clockwork.NewRealClock()
	}
	return r.Clock
}

func (r *Runner) rand() io.Reader {
	if r.Rand == nil {
		return rand.Reader
	}
	return r.Rand
}

func (r *Runner) log() logrus.FieldLogger {
	return logging.Or(r.Logger)
}

func (r *Runner) search() dh.SearchConfig {
	if r.Search.MaxAttempts == 0 {
		return dh.DefaultSearchConfig()
	}
	return r.Search
}

// ECDH runs iterations exchanges on curve with the named backend.
func (r *Runner) ECDH(ctx context.Context, c *curves.Params, backend string, iterations int) (Measurement, error) {
	m := r.Metrics
	if m == nil {
		var err error
		if m, err = ec.NewMetrics(nil); err != nil {
			return Measurement{}, err
		}
	}
	arith, err := ec.NewArithmetic(backend, c, ec.WithMetrics(m))
	if err != nil {
		return Measurement{}, err
	}
	before := m.InversionCount(backend)

	rng := r.rand()
	out := Measurement{Name: "ecdh/" + backend, Iterations: iterations}
	start := r.clock().Now()
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return Measurement{}, err
		}
		if _, err := ecdh.Exchange(rng, arith); err != nil {
			return Measurement{}, errors.Wrapf(err, "compare: %s exchange %d", out.Name, i)
		}
	}
	out.Elapsed = r.clock().Now().Sub(start)
	out.Inversions = m.InversionCount(backend) - before

	r.log().WithFields(logrus.Fields{
		"curve":   c.Name,
		"backend": backend,
	}).Debugf("%d exchanges in %s", iterations, out.Elapsed)
	return out, nil
}

// ClassicalDH runs iterations exchanges over params.
func (r *Runner) ClassicalDH(ctx context.Context, params *dh.Params, iterations int) (Measurement, error) {
	rng := r.rand()
	out := Measurement{Name: "dh", Iterations: iterations}
	start := r.clock().Now()
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return Measurement{}, err
		}
		if _, err := dh.Exchange(rng, params); err != nil {
			return Measurement{}, errors.Wrapf(err, "compare: dh exchange %d", i)
		}
	}
	out.Elapsed = r.clock().Now().Sub(start)

	r.log().WithField("bits", params.P.BitLen()).Debugf("%d exchanges in %s", iterations, out.Elapsed)
	return out, nil
}

// Compare measures both ECDH backends on curve and classical DH over fresh
// dhBits parameters concurrently. Parameter generation is not timed.
func (r *Runner) Compare(ctx context.Context, curve string, dhBits, iterations int) (*Report, error) {
	if iterations < 1 {
		return nil, errors.Errorf("compare: iterations must be positive, got %d", iterations)
	}
	c, err := curves.FromName(curve)
	if err != nil {
		return nil, err
	}

	// the measurements share one reader
	shared := *r
	shared.Rand = &lockedReader{r: r.rand()}

	backends := ec.Backends()
	results := make([]Measurement, len(backends)+1)
	eg, ctx := errgroup.WithContext(ctx)
	for i, backend := range backends {
		i, backend := i, backend
		eg.Go(func() error {
			m, err := shared.ECDH(ctx, c, backend, iterations)
			results[i] = m
			return err
		})
	}
	eg.Go(func() error {
		params, err := dh.GenerateParams(shared.Rand, dhBits, shared.search())
		if err != nil {
			return err
		}
		m, err := shared.ClassicalDH(ctx, params, iterations)
		results[len(backends)] = m
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Curve: c.Name, DHBits: dhBits, Measurements: results}
	r.log().WithField("curve", c.Name).Info("comparison finished")
	return report, nil
}

type lockedReader struct {
	mu sync.Mutex
	r  io.Reader
}

func (l *lockedReader) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Read(p)
}
