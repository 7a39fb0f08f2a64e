package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/smallyu/go-ecdh/internal/compare"
	"github.com/smallyu/go-ecdh/internal/config"
	"github.com/smallyu/go-ecdh/internal/crypto/curves"
	"github.com/smallyu/go-ecdh/internal/crypto/ec"
	"github.com/smallyu/go-ecdh/internal/logging"
	"github.com/smallyu/go-ecdh/internal/protocol/dh"
	"github.com/smallyu/go-ecdh/internal/protocol/ecdh"
	"github.com/smallyu/go-ecdh/internal/protocol/exchange"
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"curve":       "curve",
	"backend":     "backend",
	"cache-bytes": "cache.max_bytes",
	"bits":        "dh.bits",
	"log-level":   "log.level",
}

type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:           "ecdh",
		Short:         "Elliptic-curve Diffie-Hellman over affine and Jacobian arithmetic",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(
		curvesCmd(),
		a.exchangeCmd(),
		a.dhCmd(),
		a.compareCmd(),
		a.configCmd(),
	)
	return rootCmd
}

// load binds the flags of the running command and reads the configuration.
func (a *app) load(cmd *cobra.Command) error {
	if err := bindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	if err := logging.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *app) arithmetic(m *ec.Metrics) (ec.Arithmetic, *ec.Cache, error) {
	c, err := curves.FromName(a.cfg.Curve)
	if err != nil {
		return nil, nil, err
	}
	cache := ec.NewCache(a.cfg.Cache.MaxBytes)
	arith, err := ec.NewArithmetic(a.cfg.Backend, c, ec.WithCache(cache), ec.WithMetrics(m))
	if err != nil {
		return nil, nil, err
	}
	return arith, cache, nil
}

func curvesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "curves",
		Short: "List the curve catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range curves.SupportedCurves() {
				c, err := curves.FromName(name)
				if err != nil {
					return err
				}
				cmd.Printf("%-16s %3d bits  p=%x\n", c.Name, c.BitSize, c.P)
			}
			return nil
		},
	}
}

func (a *app) exchangeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Run a confirmed two-party ECDH exchange",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ec.NewMetrics(nil)
			if err != nil {
				return err
			}
			arith, cache, err := a.arithmetic(m)
			if err != nil {
				return err
			}
			scheme := ecdh.NewScheme(arith)
			alice, bob := exchange.NewParty("alice"), exchange.NewParty("bob")

			sa, _, err := exchange.Run[ecdh.PrivateKey, ecdh.PublicKey](contextOrBackground(cmd), scheme, alice, bob)
			if err != nil {
				return err
			}
			cmd.Printf("curve:       %s (%s arithmetic)\n", arith.Curve().Name, arith.Name())
			cmd.Printf("session:     %s\n", sa.SessionID)
			cmd.Printf("agreed:      %d-byte secret\n", len(sa.Secret))
			cmd.Printf("key id:      %x\n", fingerprint(sa.Key))
			cmd.Printf("inversions:  %d\n", m.InversionCount(arith.Name()))
			if cache != nil {
				st := cache.Stats()
				cmd.Printf("cache:       %d entries, %d gets, %d misses\n", st.Entries, st.Gets, st.Misses)
			}
			return nil
		},
	}
	cmd.Flags().String("curve", curves.Secp256k1, "catalogue curve name")
	cmd.Flags().String("backend", ec.BackendJacobian, "point arithmetic (affine, jacobian)")
	cmd.Flags().Int("cache-bytes", 0, "memo cache size in bytes, 0 disables it")
	return cmd
}

func (a *app) dhCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dh",
		Short: "Generate safe-prime parameters and run a classical Diffie-Hellman exchange",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := dh.GenerateParams(rand.Reader, a.cfg.DH.Bits, a.cfg.SearchConfig())
			if err != nil {
				return err
			}
			if _, err := dh.Exchange(rand.Reader, params); err != nil {
				return err
			}
			cmd.Printf("params:      %s\n", params)
			cmd.Printf("agreed:      %d-byte secret\n", params.ByteLen())
			return nil
		},
	}
	cmd.Flags().Int("bits", 256, "safe prime size in bits")
	return cmd
}

func (a *app) compareCmd() *cobra.Command {
	var iterations int
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Time affine ECDH, Jacobian ECDH and classical Diffie-Hellman",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ec.NewMetrics(prometheus.NewRegistry())
			if err != nil {
				return err
			}
			r := &compare.Runner{
				Search:  a.cfg.SearchConfig(),
				Metrics: m,
			}
			report, err := r.Compare(contextOrBackground(cmd), a.cfg.Curve, a.cfg.DH.Bits, iterations)
			if err != nil {
				return err
			}
			cmd.Print(report.String())
			return nil
		},
	}
	cmd.Flags().String("curve", curves.Secp256k1, "catalogue curve name")
	cmd.Flags().Int("bits", 256, "safe prime size in bits")
	cmd.Flags().IntVar(&iterations, "iterations", 10, "exchanges per scheme")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.cfg.YAML()
			if err != nil {
				return err
			}
			cmd.Print(string(out))
			return nil
		},
	}
}

func fingerprint(key []byte) []byte {
	sum := sha256.Sum256(key)
	return sum[:8]
}

// contextOrBackground is used by commands executed without a context.
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
