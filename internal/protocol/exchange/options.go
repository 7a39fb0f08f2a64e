package exchange

import (
	"crypto/rand"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/smallyu/go-ecdh/internal/logging"
)

type options struct {
	rng    io.Reader
	logger logrus.FieldLogger
}

// Option configures a state machine.
type Option func(*options)

// WithRand sets the randomness used for keys and commitment salts.
// crypto/rand.Reader is used otherwise.
func WithRand(r io.Reader) Option {
	return func(o *options) {
		o.rng = r
	}
}

// WithLogger sets the logger. logging.Logger is used otherwise.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	o := options{rng: rand.Reader}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logging.Or(o.logger)
	return o
}
