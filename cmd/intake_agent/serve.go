package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/executive-intake/internal/health"
	"github.com/jonathan/executive-intake/internal/server"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for intake conversations.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	ctx := cmd.Context()
	a, err := buildApp(ctx, cfg, true)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() { _ = a.Close() }()

	srv := server.New(server.Config{
		Port:        cfg.Port,
		CORSOrigins: cfg.CORSOrigins,
	}, server.Deps{
		Conversations: a.orchestrator,
		Health:        health.NewService(a.checkers...),
		Logger:        a.log,
	})

	return srv.Run(ctx)
}
