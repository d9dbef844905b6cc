package main

import (
	"fmt"
	"sort"

	"github.com/harunnryd/tsumugi/internal/cursor"

	"github.com/spf13/cobra"
)

var cursorCmd = &cobra.Command{
	Use:   "cursor",
	Short: "Manage persisted resume cursors",
}

var cursorLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List persisted cursors",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cursor.NewStore(cfg.Cursor.Path)
		if err != nil {
			return fmt.Errorf("failed to open cursor store: %w", err)
		}

		cursors := store.List()
		if len(cursors) == 0 {
			fmt.Println("No cursors persisted.")
			return nil
		}

		ids := make([]string, 0, len(cursors))
		for id := range cursors {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		fmt.Println("Persisted cursors:")
		for _, id := range ids {
			fmt.Printf("- %s: %s\n", id, cursors[id])
		}
		return nil
	},
}

var cursorResetCmd = &cobra.Command{
	Use:   "reset <stream-id>",
	Short: "Forget the cursor for a stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cursor.NewStore(cfg.Cursor.Path)
		if err != nil {
			return fmt.Errorf("failed to open cursor store: %w", err)
		}

		if err := store.Reset(args[0]); err != nil {
			return fmt.Errorf("failed to reset cursor: %w", err)
		}

		fmt.Printf("✓ Cursor for '%s' reset.\n", args[0])
		return nil
	},
}

func init() {
	cursorCmd.AddCommand(cursorLsCmd)
	cursorCmd.AddCommand(cursorResetCmd)
	rootCmd.AddCommand(cursorCmd)
}
