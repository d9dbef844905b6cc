package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harunnryd/tsumugi/internal/concurrency"
	"github.com/harunnryd/tsumugi/internal/config"
	"github.com/harunnryd/tsumugi/internal/cursor"
	"github.com/harunnryd/tsumugi/internal/errors"
	"github.com/harunnryd/tsumugi/internal/logger"
	"github.com/harunnryd/tsumugi/internal/record"
	"github.com/harunnryd/tsumugi/internal/render"
	"github.com/harunnryd/tsumugi/internal/session"
	"github.com/harunnryd/tsumugi/internal/transport"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
)

// Lock files older than this belong to crashed recorders.
const staleLockMaxAge = 24 * time.Hour

var tailCmd = &cobra.Command{
	Use:   "tail <stream-id>",
	Short: "Follow a live stream",
	Long:  `Connect to a stream's event feed, accumulate its state, and render snapshots as it progresses.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		streamID := args[0]

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logger.WithTraceID(logger.WithStreamID(ctx, streamID), ulid.Make().String())

		cursors, err := cursor.NewStore(cfg.Cursor.Path)
		if err != nil {
			return fmt.Errorf("failed to open cursor store: %w", err)
		}

		resumeCursor, _ := cmd.Flags().GetString("cursor")
		if resumeFlag, _ := cmd.Flags().GetBool("resume"); resumeFlag && resumeCursor == "" {
			stored, err := cursors.Get(streamID)
			if err != nil && !stderrors.Is(err, errors.ErrCursorNotFound) {
				return err
			}
			resumeCursor = stored
		}

		client, err := transport.NewClient(cfg.Feed)
		if err != nil {
			return fmt.Errorf("failed to build feed client: %w", err)
		}

		stream, err := client.Open(ctx, streamID, resumeCursor)
		if err != nil {
			return err
		}
		defer stream.Close()

		var src session.FrameSource = stream
		if recording, _ := cmd.Flags().GetBool("record"); recording {
			concurrency.SafeGo(func() {
				record.CleanupStaleLocks(cfg.Recording.Dir, staleLockMaxAge)
			}, nil)
			writer, err := record.NewWriter(cfg.Recording.Dir, streamID, record.LockConfigFrom(cfg.Recording))
			if err != nil {
				return err
			}
			defer writer.Close()
			src = &record.Tee{Src: stream, Writer: writer}
		}

		interval, err := config.DurationOrDefault(cfg.Session.SnapshotInterval, config.DefaultSessionSnapshotInterval)
		if err != nil {
			return err
		}

		ctrl := session.New(streamID)
		formatter := render.NewSnapshotFormatter(cfg.Render.MaxCellWidth)

		streamErr := follow(ctx, ctrl, src, formatter, interval)
		slog.Info("Stream finished",
			"trace_id", logger.GetTraceID(ctx),
			"stream", logger.GetStreamID(ctx),
			"done", ctrl.Done(),
			"diagnostics", ctrl.Diagnostics(),
		)

		// Whatever happened, the accumulated state is still readable and the
		// cursor is worth keeping for resume.
		fmt.Println(formatter.FormatSnapshot(ctrl.Snapshot()))
		if ctrl.Cursor() != "" {
			if err := cursors.Set(ctrl.StreamID(), ctrl.Cursor()); err != nil {
				return fmt.Errorf("failed to persist cursor: %w", err)
			}
		}

		if streamErr != nil && !stderrors.Is(streamErr, context.Canceled) {
			return fmt.Errorf("stream interrupted (rerun with --resume to continue): %w", streamErr)
		}
		return nil
	},
}

// follow drains src one event at a time, re-rendering at most once per
// interval. Pull-based: at most one frame is in flight.
func follow(ctx context.Context, ctrl *session.Controller, src session.FrameSource, formatter *render.SnapshotFormatter, interval time.Duration) error {
	lastRender := time.Time{}
	for {
		frame, err := src.Next(ctx)
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		ctrl.ApplyFrame(frame)
		if ctrl.Done() {
			return nil
		}
		if time.Since(lastRender) >= interval {
			fmt.Println(formatter.FormatSnapshot(ctrl.Snapshot()))
			lastRender = time.Now()
		}
	}
}

func init() {
	rootCmd.AddCommand(tailCmd)
	tailCmd.Flags().Bool("resume", false, "resume from the last persisted cursor")
	tailCmd.Flags().String("cursor", "", "explicit resume cursor (overrides --resume)")
	tailCmd.Flags().Bool("record", false, "record raw frames for later replay")
}
