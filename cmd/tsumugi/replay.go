package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/harunnryd/tsumugi/internal/config"
	"github.com/harunnryd/tsumugi/internal/record"
	"github.com/harunnryd/tsumugi/internal/render"
	"github.com/harunnryd/tsumugi/internal/session"

	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <stream-id|path>",
	Short: "Replay a recorded stream",
	Long:  `Feed a recorded event log back through a fresh session and print the final snapshot.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err != nil {
			path = filepath.Join(cfg.Recording.Dir, args[0]+".jsonl")
		}

		maxFrameBytes := cfg.Feed.MaxFrameBytes
		if maxFrameBytes <= 0 {
			maxFrameBytes = config.DefaultFeedMaxFrameBytes
		}

		src, err := record.OpenSource(path, maxFrameBytes)
		if err != nil {
			return fmt.Errorf("failed to open recording: %w", err)
		}
		defer src.Close()

		ctrl := session.New("")
		if err := ctrl.Run(cmd.Context(), src); err != nil {
			return err
		}

		formatter := render.NewSnapshotFormatter(cfg.Render.MaxCellWidth)
		fmt.Println(formatter.FormatSnapshot(ctrl.Snapshot()))
		return nil
	},
}

var recordingsCmd = &cobra.Command{
	Use:   "recordings",
	Short: "List recorded streams",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := record.ListRecordings(cfg.Recording.Dir)
		if err != nil {
			return fmt.Errorf("failed to list recordings: %w", err)
		}

		if len(ids) == 0 {
			fmt.Println("No recordings found.")
			fmt.Println("\nRun 'tsumugi tail --record <stream-id>' to create one.")
			return nil
		}

		fmt.Println("Recordings:")
		for _, id := range ids {
			fmt.Printf("- %s\n", id)
		}
		fmt.Printf("\nTotal: %d recording(s)\n", len(ids))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(recordingsCmd)
}
