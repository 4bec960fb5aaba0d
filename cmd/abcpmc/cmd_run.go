package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/milosgajdos/go-abc/config"
	"github.com/milosgajdos/go-abc/logging"
	"github.com/milosgajdos/go-abc/pmc"
	"github.com/milosgajdos/go-abc/report"
	"github.com/milosgajdos/go-abc/store"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sampler",
		Long: `Run fits the configured model parameters to the observed dataset.

The observed dataset is simulated from the model truth given in the configuration.
Results are optionally stored in a SQLite database and plotted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			dbPath, _ := cmd.Flags().GetString("db")
			plotDir, _ := cmd.Flags().GetString("plot")
			resumeID, _ := cmd.Flags().GetString("resume")
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if level, _ := cmd.Flags().GetString("log-level"); level != "" {
				cfg.Logging.Level = level
			}
			if dbPath != "" {
				cfg.Output.DB = dbPath
			}
			if plotDir != "" {
				cfg.Output.PlotDir = plotDir
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			if resumeID != "" && cfg.Output.DB == "" {
				return fmt.Errorf("--resume requires a database")
			}

			logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())

			observed, err := cfg.Observed()
			if err != nil {
				return fmt.Errorf("failed to simulate observed data: %w", err)
			}

			pc, err := cfg.PMC(observed, logger)
			if err != nil {
				return err
			}

			s, err := pmc.New(pc)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			var db *store.Store
			if cfg.Output.DB != "" {
				if db, err = store.Open(ctx, cfg.Output.DB); err != nil {
					return err
				}
				defer db.Close()
			}

			res, err := run(ctx, s, db, resumeID)
			if err != nil {
				return err
			}

			var id string
			if db != nil {
				if id, err = db.Save(ctx, res); err != nil {
					return fmt.Errorf("failed to store run: %w", err)
				}
				logger.Info("run stored", "id", id, "db", cfg.Output.DB)
			}

			if cfg.Output.PlotDir != "" {
				paths, err := report.Save(res, cfg.Output.PlotDir)
				if err != nil {
					return err
				}
				logger.Info("plots written", "files", paths)
			}

			return printSummary(cmd.OutOrStdout(), id, res, jsonOut)
		},
	}

	cmd.Flags().String("config", "", "Path to YAML configuration file")
	cmd.Flags().String("db", "", "Path to SQLite database the run is stored in")
	cmd.Flags().String("plot", "", "Directory posterior plots are written to")
	cmd.Flags().String("resume", "", "Stored run id to resume; \"last\" resumes the latest run")

	return cmd
}

// run runs the sampler from scratch or resumes the stored run resumeID.
func run(ctx context.Context, s *pmc.Sampler, db *store.Store, resumeID string) (*pmc.Result, error) {
	if resumeID == "" {
		return s.Run(ctx)
	}

	if resumeID == "last" {
		id, err := db.Latest(ctx)
		if err != nil {
			return nil, fmt.Errorf("no run to resume: %w", err)
		}
		resumeID = id
	}

	prev, err := db.Load(ctx, resumeID)
	if err != nil {
		return nil, err
	}

	return s.Resume(ctx, prev)
}
