package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/banshee-data/vibration.monitor/internal/bridge"
	"github.com/banshee-data/vibration.monitor/internal/config"
	"github.com/banshee-data/vibration.monitor/internal/diagnostic"
	"github.com/banshee-data/vibration.monitor/internal/monitor"
	"github.com/banshee-data/vibration.monitor/internal/monitoring"
	"github.com/banshee-data/vibration.monitor/internal/serialport"
	"github.com/banshee-data/vibration.monitor/internal/version"
)

type runOptions struct {
	configPath     string
	port           string
	baud           int
	diagPort       string
	dev            bool
	fixtures       string
	replayInterval time.Duration
	logLevel       string
	logFormat      string
}

func newRunCmd() *cobra.Command {
	var o runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the monitoring loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd.Context(), o, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.configPath, "config", "", "path to a JSON config file (defaults are used when empty)")
	f.StringVar(&o.port, "port", "/dev/ttyUSB0", "serial port of the sensor board (ignored in dev mode)")
	f.IntVar(&o.baud, "baud", 0, "baud rate of the sensor board (0 uses the config value)")
	f.StringVar(&o.diagPort, "diag-port", "", "serial port for the diagnostic stream (stdout when empty)")
	f.BoolVar(&o.dev, "dev", false, "replay fixtures through an emulated sensor board")
	f.StringVar(&o.fixtures, "fixtures", "fixtures.txt", "fixture file replayed in dev mode")
	f.DurationVar(&o.replayInterval, "replay-interval", 100*time.Millisecond, "delay between replayed samples in dev mode")
	f.StringVar(&o.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	f.StringVar(&o.logFormat, "log-format", "console", "log format: console or json")

	return cmd
}

func runMonitor(ctx context.Context, o runOptions, stdout io.Writer) error {
	logger, err := monitoring.NewZapLogger(o.logLevel, o.logFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger = logger.With(zap.String("run_id", uuid.NewString()))
	monitoring.UseZap(logger)

	cfg := config.DefaultConfig()
	if o.configPath != "" {
		cfg, err = config.LoadConfig(o.configPath)
		if err != nil {
			return err
		}
	}

	var (
		port   serialport.Port
		replay *bridge.ReplayPort
	)
	if o.dev {
		lines, err := bridge.LoadFixtures(o.fixtures)
		if err != nil {
			return err
		}
		replay = bridge.NewReplayPort(lines, o.replayInterval)
		port = replay
		logger.Info("dev mode: replaying fixtures", zap.String("fixtures", o.fixtures), zap.Int("lines", len(lines)))
	} else {
		opts := cfg.GetBridgeSerial()
		if o.baud > 0 {
			opts.BaudRate = o.baud
		}
		port, err = serialport.Open(o.port, opts)
		if err != nil {
			return fmt.Errorf("failed to open sensor board port (%s): %w", describePorts(), err)
		}
		logger.Info("opened sensor board", zap.String("port", o.port), zap.Stringer("mode", opts))
	}

	b := bridge.New(port)
	b.ConnectTimeout = cfg.GetConnectTimeout()

	diagOut := stdout
	if o.diagPort != "" {
		dp, err := serialport.Open(o.diagPort, cfg.GetDiagnosticSerial())
		if err != nil {
			b.Close()
			return fmt.Errorf("failed to open diagnostic port: %w", err)
		}
		defer dp.Close()
		diagOut = dp
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	readerDone := make(chan error, 1)
	go func() {
		readerDone <- b.Monitor(ctx)
	}()
	defer func() {
		b.Close()
		if err := <-readerDone; err != nil && ctx.Err() == nil {
			logger.Warn("bridge reader stopped", zap.Error(err))
		}
	}()

	mon, err := monitor.New(monitor.Deps{
		Motion:     b,
		Light:      b,
		GPIO:       b,
		Display:    b,
		Diagnostic: diagnostic.NewSink(diagOut),
	}, cfg)
	if err != nil {
		return err
	}
	mon.Observer = func(res monitor.Result) {
		logger.Info("cycle complete",
			zap.Int("cycle", res.Cycle),
			zap.Float64("temp_c", res.Reading.TempC),
			zap.Int("lux", res.Reading.Lux),
			zap.Float64("vibration_mean", res.VibrationMean),
			zap.String("alerts", res.Alerts.String()),
			zap.Duration("duration", res.Duration),
		)
		if replay != nil {
			logger.Debug("emulated display", zap.Strings("rows", replay.Display().Rows()))
		}
	}

	logger.Info("starting monitor",
		zap.String("version", version.String()),
		zap.Bool("dev", o.dev),
		zap.String("thresholds", describeThresholds(cfg)),
	)

	err = mon.Run(ctx)
	if errors.Is(err, monitor.ErrSensorNotConnected) {
		// fail-stop: stay halted until an operator stops the process
		logger.Error("motion sensor not connected, halted", zap.Error(err))
		<-ctx.Done()
		return err
	}
	if err != nil {
		return err
	}

	logger.Info("monitor stopped", zap.Int("cycles", mon.Cycles()))
	return nil
}

func describeThresholds(cfg *config.MonitorConfig) string {
	t := cfg.Thresholds()
	return fmt.Sprintf("lux>=%d vibration>%.2fg temp>%.1fC", t.LuxDark, t.Vibration, t.Temperature)
}

// listPorts is swapped out in tests.
var listPorts = serialport.Ports

func describePorts() string {
	ports, err := listPorts()
	if err != nil || len(ports) == 0 {
		return "no serial ports found"
	}
	return "available: " + strings.Join(ports, ", ")
}
