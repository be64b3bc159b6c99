package main

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/hub-export/pkg/services/config"
	"github.com/de-tools/hub-export/pkg/services/delivery"
	"github.com/de-tools/hub-export/pkg/services/export"
	"github.com/de-tools/hub-export/pkg/store/mssql"
)

var (
	cfgPath   string
	weeksBack int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hub-export",
		Short: "Export the week's hub records to a workbook and deliver it",
		RunE:  run,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "config.json",
		"Path to the process arguments file")
	rootCmd.Flags().IntVar(&weeksBack, "weeks-back", 0,
		"Report on the week this many weeks before the current one")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load process configuration: %w", err)
	}
	if cmd.Flags().Changed("weeks-back") {
		cfg.Export.WeeksBack = weeksBack
	}

	db, err := sql.Open("sqlserver", cfg.DbConnectionString)
	if err != nil {
		return fmt.Errorf("failed to open hub connection: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close hub connection")
		}
	}()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("hub database unreachable: %w", err)
	}

	hub, err := mssql.NewStore(db, cfg.Export.HubTable)
	if err != nil {
		return fmt.Errorf("failed to create hub store: %w", err)
	}

	uploader, err := delivery.NewUploader(delivery.Settings{
		ServiceURL:   cfg.Storage.ServiceURL,
		AccountName:  cfg.Storage.AccountName,
		AccountKey:   cfg.Storage.AccountKey,
		TenantID:     cfg.Storage.TenantID,
		ClientID:     cfg.Storage.ClientID,
		ClientSecret: cfg.Storage.ClientSecret,
	})
	if err != nil {
		return fmt.Errorf("failed to create uploader: %w", err)
	}

	exporter, err := export.NewExporter(hub, uploader, export.Settings{
		TempPath:  cfg.Export.TempPath,
		Prefix:    cfg.Export.Prefix,
		Container: cfg.Storage.Container,
		WeeksBack: cfg.Export.WeeksBack,
	})
	if err != nil {
		return fmt.Errorf("failed to create exporter: %w", err)
	}

	logger.Info().Msg("Running process.")
	return exporter.Run(ctx, time.Now())
}
