package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wesleyorama2/streamperf/internal/logger"
	"github.com/wesleyorama2/streamperf/internal/monitor"
)

const defaultChunkSize = 64 * 1024

func newMonitorCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor [file]",
		Short: "Pass a stream through and report its performance",
		Long: `Read a stream from a file or stdin and copy it unchanged to stdout.
Every chunk read counts as one buffer. Reports go to stderr so the
stream itself can be piped on:

  ffmpeg ... -f mpegts - | streamperf monitor --print-cpu-load | ffplay -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd, args, v)
		},
	}

	cmd.Flags().String("sink", "", "Write the stream to this file instead of stdout")
	cmd.Flags().Bool("discard", false, "Drop the stream after counting it")
	cmd.Flags().Int("chunk-size", defaultChunkSize, "Maximum bytes per read")
	return cmd
}

func runMonitor(cmd *cobra.Command, args []string, v *viper.Viper) error {
	sinkPath, _ := cmd.Flags().GetString("sink")
	discard, _ := cmd.Flags().GetBool("discard")
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")
	if chunkSize <= 0 {
		return fmt.Errorf("chunk-size must be positive, got %d", chunkSize)
	}

	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	out := cmd.OutOrStdout()
	switch {
	case discard:
		out = io.Discard
	case sinkPath != "":
		f, err := os.Create(sinkPath)
		if err != nil {
			return fmt.Errorf("create sink: %w", err)
		}
		defer f.Close()
		out = f
	}

	sess, err := newSession(v, cmd.ErrOrStderr())
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
	ctx, cancel := context.WithCancel(ctx)

	done := make(chan error, 1)
	go func() { done <- m.Serve(ctx) }()

	type copyResult struct {
		n   int64
		err error
	}
	copied := make(chan copyResult, 1)
	go func() {
		// Hide ReaderFrom/WriterTo so every read goes through the counting
		// reader with at most chunkSize bytes.
		n, err := io.CopyBuffer(struct{ io.Writer }{out}, struct{ io.Reader }{m.Reader(in)}, make([]byte, chunkSize))
		copied <- copyResult{n: n, err: err}
	}()

	// A read blocked on stdin cannot be interrupted, so cancellation stops
	// waiting for the copy instead of waiting for the next read to return.
	var res copyResult
	select {
	case res = <-copied:
	case <-ctx.Done():
		stop()
		cancel()
		serveErr := <-done
		sess.log.Info("stream interrupted")
		return serveErr
	}

	cancel()
	serveErr := <-done

	sess.log.Info("stream ended", logger.Uint64("bytes", uint64(res.n)))
	if res.err != nil {
		return fmt.Errorf("copy stream: %w", res.err)
	}
	return serveErr
}
