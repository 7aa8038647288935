package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	dbPath   string
	adbPath  string
	serial   string
	logLevel string

	// RootCmd is the root command for droidprune
	RootCmd = &cobra.Command{
		Use:   "droidprune",
		Short: "Inventory, remove and restore apps on a connected Android device",
		Long: `droidprune lists the packages installed on an Android device over adb,
removes the ones you select for the current user, and keeps an APK backup of
every package it removes so it can be reinstalled later.

Every uninstall is preceded by a backup in the backups directory
(<Documents>/AndroidDebloater/backups/<package>-<timestamp>/). Runs are
recorded in a local database and can be reviewed with 'droidprune history'.

Features:
  • Package inventory with case-insensitive filtering
  • Bulk uninstall with per-package outcomes
  • Automatic APK backup before removal
  • Restore from the latest backup or any folder of APKs
  • Interactive console ('droidprune shell')

Examples:
  # Show attached devices
  droidprune devices

  # List packages matching "facebook"
  droidprune scan --filter facebook

  # Remove two packages
  droidprune uninstall com.facebook.katana com.facebook.appmanager

  # Restore the latest backup of a package
  droidprune restore --package com.facebook.katana

  # Open the interactive console
  droidprune shell`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "droidprune: Android package cleanup over adb")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Run 'droidprune doctor' to check your setup.")
			fmt.Fprintln(out, "Run 'droidprune shell' for the interactive console.")
			fmt.Fprintln(out, "Run 'droidprune --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/droidprune/droidprune.yaml)")
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.config/droidprune/droidprune.db)")
	RootCmd.PersistentFlags().StringVar(&adbPath, "adb", "", "path to the adb binary (default: bundled platform-tools, then $PATH)")
	RootCmd.PersistentFlags().StringVarP(&serial, "serial", "s", "", "device serial when several devices are attached")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "diagnostic log level: debug, info, warn, error")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command. The first SIGINT or SIGTERM cancels the
// command's context, which stops any adb call in flight; a second one
// terminates the process as usual.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		stop()
	}()
	return RootCmd.ExecuteContext(ctx)
}
