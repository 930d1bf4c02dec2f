package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wesleyorama2/streamperf/internal/logger"
	"github.com/wesleyorama2/streamperf/internal/monitor"
	"github.com/wesleyorama2/streamperf/internal/source"
)

func newSynthCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Measure a synthetic stream",
		Long: `Generate frames at a fixed rate and measure them like a live stream.
Useful to check the reporting pipeline and the exported metrics without a
real source.

  streamperf synth --fps 60 --frame-size 8192 --variation 0.3 --duration 10s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSynth(cmd, v)
		},
	}

	cmd.Flags().Float64("fps", 30, "Frames per second")
	cmd.Flags().Int("frame-size", 4096, "Mean frame size in bytes")
	cmd.Flags().Float64("variation", 0, "Relative frame size variation (0 to 1)")
	cmd.Flags().Duration("duration", 0, "Stop after this long, 0 to run until interrupted")
	cmd.Flags().Int("frames", 0, "Stop after this many frames, 0 for no limit")
	cmd.Flags().Uint64("seed", 1, "Seed for frame size variation")
	cmd.Flags().Float64("burst", 1, "Overdue frames released back to back after a stall")
	return cmd
}

func runSynth(cmd *cobra.Command, v *viper.Viper) error {
	fps, _ := cmd.Flags().GetFloat64("fps")
	frameSize, _ := cmd.Flags().GetInt("frame-size")
	variation, _ := cmd.Flags().GetFloat64("variation")
	duration, _ := cmd.Flags().GetDuration("duration")
	frames, _ := cmd.Flags().GetInt("frames")
	seed, _ := cmd.Flags().GetUint64("seed")
	burst, _ := cmd.Flags().GetFloat64("burst")

	if duration < 0 {
		return fmt.Errorf("duration must not be negative, got %s", duration)
	}

	synth, err := source.NewSynth(source.SynthConfig{
		FPS:       fps,
		FrameSize: frameSize,
		Variation: variation,
		Frames:    frames,
		Seed:      seed,
		MaxBurst:  burst,
	})
	if err != nil {
		return err
	}

	sess, err := newSession(v, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer sess.close()

	m := monitor.New(monitor.Config{
		Engine:    sess.newEngine(),
		Reporters: sess.reporters,
		Logger:    sess.log,
	})
	if err := m.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, duration)
		defer cancelTimeout()
	}
	serveCtx, cancel := context.WithCancel(ctx)

	done := make(chan error, 1)
	go func() { done <- m.Serve(serveCtx) }()

	n, runErr := synth.Run(ctx, func(f source.Frame) error {
		return m.Observe(f.Size)
	})

	cancel()
	serveErr := <-done

	stats := synth.Pacer().Stats()
	sess.log.Info("synthetic stream ended",
		logger.Int("frames", n),
		logger.Float64("max_burst", stats.MaxBurst),
		logger.Duration("paced_wait", stats.TotalWaitTime))
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}
	return serveErr
}
