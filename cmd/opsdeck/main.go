package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/opsdeck/opsdeck/docs" // Load swagger docs
	"github.com/opsdeck/opsdeck/internal/server"
)

// Version is set via ldflags at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "opsdeck",
	Short: "Opsdeck - administrative console for accounts, roles, and audit",
}

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return server.Run(ctx, server.Options{Port: servePort, Version: Version})
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to run the server on (overrides config)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
}

// @title Opsdeck API
// @version 1.0
// @description Administrative console API: operator authentication, account and role management, audit trail, usage analytics
// @host localhost:5000
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
