package main

import (
	"fmt"
	"os"

	"github.com/harunnryd/tsumugi/internal/config"
	"github.com/harunnryd/tsumugi/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tsumugi",
	Short: "Tsumugi stream client",
	Long:  `Tsumugi reconstructs structured conversational state from an agent runtime's public SSE v1 feed.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd)
		if err != nil {
			return err
		}

		logger.Setup(cfg.Log.Level)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tsumugi/config.yaml)")
	rootCmd.PersistentFlags().String("log.level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("feed.base_url", config.DefaultFeedBaseURL, "agent runtime base URL")
}
