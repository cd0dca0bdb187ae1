package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	logLevel string
	tokenTTL time.Duration
	tokenSub string
	tokenEml string
	tokenNam string

	rootCmd = &cobra.Command{
		Use:           "taskboard",
		Short:         "Personal task board API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogger(logLevel)
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the digest scheduler",
		RunE:  runServe,
	}

	digestCmd = &cobra.Command{
		Use:   "digest",
		Short: "Send one digest round to every subscribed user and exit",
		RunE:  runDigest,
	}

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with AUTH_SECRET (development only)",
		RunE:  runToken,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	tokenCmd.Flags().StringVar(&tokenSub, "subject", "", "external identity (sub claim)")
	tokenCmd.Flags().StringVar(&tokenEml, "email", "", "email claim")
	tokenCmd.Flags().StringVar(&tokenNam, "name", "", "name claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	_ = tokenCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(serveCmd, digestCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("taskboard failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
}
