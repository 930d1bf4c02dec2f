package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wesleyorama2/streamperf/internal/trace"
)

func newReplayCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <trace.jsonl>",
		Short: "Replay a recorded buffer trace",
		Long: `Replay a JSON-lines trace with one buffer per line. Time comes from the
trace, not the wall clock, so the same trace always produces the same
reports. CPU load is never reported for a replay.

  {"ts": 0, "size": 1316}
  {"ts": 33.3, "size": 1204}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, args[0], v)
		},
	}

	cmd.Flags().String("ts-path", trace.DefaultTimestampPath, "Path of the timestamp field (gjson or JSONPath)")
	cmd.Flags().String("size-path", trace.DefaultSizePath, "Path of the buffer size field (gjson or JSONPath)")
	cmd.Flags().Duration("ts-unit", trace.DefaultTimestampUnit, "Unit of the timestamp field")
	return cmd
}

func runReplay(cmd *cobra.Command, path string, v *viper.Viper) error {
	tsPath, _ := cmd.Flags().GetString("ts-path")
	sizePath, _ := cmd.Flags().GetString("size-path")
	tsUnit, _ := cmd.Flags().GetDuration("ts-unit")

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()

	sess, err := newSession(v, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer sess.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	replayer := &trace.Replayer{
		Name:      sess.cfg.Element.Name,
		Settings:  sess.cfg.Element.Settings(),
		Reporters: sess.reporters,
		Logger:    sess.log,
	}
	reader := trace.NewReader(f, trace.Options{
		TimestampPath: tsPath,
		SizePath:      sizePath,
		TimestampUnit: tsUnit,
	})

	summary, err := replayer.Run(ctx, reader)
	if err != nil {
		return fmt.Errorf("replay %s: %w", path, err)
	}

	if sess.cfg.Output.Quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "%d buffers over %s, %d reports\n",
			summary.Records, summary.Duration.Round(time.Millisecond), summary.Snapshots)
	}
	return nil
}
