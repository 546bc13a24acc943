package cli

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/bhandras/wcpair/internal/assets"
	"github.com/bhandras/wcpair/internal/config"
	"github.com/bhandras/wcpair/internal/memsession"
	"github.com/bhandras/wcpair/internal/metrics"
	"github.com/bhandras/wcpair/internal/pairing"
	"github.com/bhandras/wcpair/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// assetBurst is the token bucket size of the asset API limiter.
const assetBurst = 1

type runOptions struct {
	qr bool
}

func newRunCmd(v *viper.Viper) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the interactive pairing console",
		Long: "run starts the pairing controller against an in-process session peer and reads " +
			"commands from stdin. Type help once it is running to list the commands.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runConsole(cmd.Context(), cfg, opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.String("log-level", config.DefaultLogLevel, "log level (trace, debug, info, warn, error)")
	f.String("bridge-url", config.DefaultBridgeURL, "bridge URL embedded in pairing links")
	f.String("asset-api-url", config.DefaultAssetAPIURL, "base URL of the asset listing API")
	f.String("metrics-addr", "", "listen address of the /metrics endpoint (empty disables)")
	f.BoolVar(&opts.qr, "qr", true, "render pairing links as terminal QR codes")

	bindings := map[string]string{
		config.KeyLogLevel:    "log-level",
		config.KeyBridgeURL:   "bridge-url",
		config.KeyAssetAPIURL: "asset-api-url",
		config.KeyMetricsAddr: "metrics-addr",
	}
	for key, flag := range bindings {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}
	return cmd
}

// runConsole wires the controller to its providers and runs the console
// until the input ends, the user quits, or ctx is canceled.
func runConsole(ctx context.Context, cfg *config.Config, opts runOptions,
	in io.Reader, stdout, stderr io.Writer) error {

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log := logger.New(stderr, level)

	reg := prometheus.NewRegistry()
	collector, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	assetClient, err := assets.New(cfg.AssetAPIURL,
		assets.WithAPIKey(cfg.AssetAPIKey),
		assets.WithRateLimit(cfg.AssetRateLimit, assetBurst),
	)
	if err != nil {
		return err
	}
	peer := memsession.New(cfg.BridgeURL)

	var metricsListener net.Listener
	if cfg.MetricsAddr != "" {
		metricsListener, err = net.Listen("tcp", cfg.MetricsAddr)
		if err != nil {
			return fmt.Errorf("listen on metrics address: %w", err)
		}
	}

	ctrl := pairing.NewController(peer, assetClient,
		pairing.WithLogger(log),
		pairing.WithMetrics(collector),
		pairing.WithProviderTimeout(cfg.ProviderTimeout),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	con := newConsole(ctrl, peer, stdout, log, opts.qr)
	states := ctrl.Observe(gctx)
	ctrl.Start()
	log.Info("pairing console started", "home", cfg.Home, "bridge", cfg.BridgeURL)

	g.Go(func() error {
		defer cancel()
		return con.readCommands(gctx, in)
	})
	g.Go(func() error {
		con.renderStates(states)
		return nil
	})
	if metricsListener != nil {
		g.Go(func() error {
			return serveMetrics(gctx, metricsListener, reg, log)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		ctrl.Stop()
		return nil
	})

	err = g.Wait()
	ctrl.Wait()
	log.Info("pairing console stopped")
	return err
}
