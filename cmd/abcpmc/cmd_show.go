package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/milosgajdos/go-abc/store"
	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show stored runs",
		Long: `Show lists runs stored in the database.

If a run id is given, the posterior summary of its last population is printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			runID, _ := cmd.Flags().GetString("run")
			jsonOut, _ := cmd.Flags().GetBool("json")

			if dbPath == "" {
				return fmt.Errorf("--db is required")
			}

			ctx := cmd.Context()
			db, err := store.Open(ctx, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if runID != "" {
				if runID == "last" {
					if runID, err = db.Latest(ctx); err != nil {
						return fmt.Errorf("no stored runs: %w", err)
					}
				}

				res, err := db.Load(ctx, runID)
				if err != nil {
					return err
				}

				return printSummary(cmd.OutOrStdout(), runID, res, jsonOut)
			}

			runs, err := db.Runs(ctx)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(runs)
			}

			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs stored.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tSTATE\tPOPULATIONS\tTHRESHOLD\tPARAMETERS")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.6g\t%v\n",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.State, r.Populations, r.Threshold, r.Names)
			}

			return tw.Flush()
		},
	}

	cmd.Flags().String("db", "", "Path to SQLite database")
	cmd.Flags().String("run", "", "Run id to show; \"last\" shows the latest run")

	return cmd
}
