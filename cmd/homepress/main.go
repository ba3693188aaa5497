package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configPath string
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:           "homepress",
	Short:         "Content and affiliate automation for Virginia Home Essentials",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(ideasCmd)
	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(alertsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(sitemapCmd)
	rootCmd.AddCommand(fullCmd)
	rootCmd.AddCommand(loopCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	logLevel := slog.LevelInfo
	if strings.EqualFold(os.Getenv("HOMEPRESS_LOG_LEVEL"), "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
