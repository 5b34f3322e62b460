package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mjdav02/shiftwatch/internal/audit"
	"github.com/mjdav02/shiftwatch/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse submitted applications (TUI)",
	Long:  "Opens an interactive browser over every application the agent has submitted.",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	sqlStore, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	records, err := sqlStore.ListApplications()
	if err != nil {
		logger.Error("failed to read application history", "error", err)
		os.Exit(1)
	}

	if err := audit.RunHistoryTUI(records); err != nil {
		fmt.Printf("TUI error: %v\n", err)
		os.Exit(1)
	}
	return nil
}
