package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"skusheet/internal/config"
	"skusheet/internal/logging"
	"skusheet/internal/session"
	"skusheet/internal/store"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"

	jsonOutput bool
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "skusheet",
		Short: "Inventory snapshot consolidator",
		Long: `Skusheet merges per-file inventory snapshots (xlsx exports) into a
single running dataset keyed by product identity (Descr, OPC, SKU),
tracking which file each observation came from and when that file was
produced. The merged dataset persists in a SQLite side-car next to the
destination workbook, so repeated runs keep accumulating history.`,
		// Errors are reported by the commands themselves.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output results as JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			if jsonOutput {
				printJSON(map[string]string{
					"version": version,
					"commit":  commit,
					"date":    buildDate,
				})
			} else {
				fmt.Printf("skusheet %s (%s, %s)\n", version, commit, buildDate)
			}
		},
	})

	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(historyCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func processCmd() *cobra.Command {
	var (
		output     string
		categories string
	)

	cmd := &cobra.Command{
		Use:   "process [files...]",
		Short: "Ingest input files and write the consolidated workbook",
		Long: `Process ingests the given input files in order, merges them into the
persisted dataset for the destination, and rewrites the destination
workbook with the General sheet and all category views. Files that
cannot be ingested are skipped with an error; only a failure to write
the destination aborts the run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New(logLevel)
			if err != nil {
				return fmt.Errorf("set up logging: %w", err)
			}
			defer log.Sync()

			cfg, err := config.Load(categories)
			if err != nil {
				return err
			}

			res, err := session.Run(cmd.Context(), session.Options{
				Inputs: args,
				Output: output,
				Config: cfg,
				Logger: log,
			})
			if err != nil {
				if jsonOutput {
					printJSON(map[string]any{"ok": false, "error": err.Error(), "result": res})
				} else {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				}
				// Returning lets the deferred log.Sync run; Execute exits
				// non-zero for us.
				return err
			}

			if jsonOutput {
				printJSON(map[string]any{"ok": true, "result": res})
			} else {
				fmt.Printf("Processed %d file(s), skipped %d. %d row(s) written to %s\n",
					res.Processed, res.Skipped, res.Rows, res.Output)
				if !res.Saved {
					fmt.Println("Warning: persistent state was not saved; re-run the whole session.")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination workbook path (required)")
	cmd.Flags().StringVar(&categories, "categories", "", "Category config yaml (default: built-in FSV/SF_PUCK table)")
	cmd.MarkFlagRequired("output")
	return cmd
}

func historyCmd() *cobra.Command {
	var (
		output string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the timestamp registry and ingest audit trail for a destination",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := store.Open(store.SidecarPath(output))
			if err != nil {
				return err
			}
			defer db.Close()

			stamps, err := store.LoadStamps(cmd.Context(), db)
			if err != nil {
				return err
			}
			entries, err := store.History(cmd.Context(), db, limit)
			if err != nil {
				return err
			}

			if jsonOutput {
				printJSON(map[string]any{"stamps": stamps, "log": entries})
				return nil
			}

			fmt.Println("File indices:")
			for idx := 1; idx < stamps.NextIndex(); idx++ {
				if stamp, ok := stamps[idx]; ok {
					fmt.Printf("  %d: %s\n", idx, stamp)
				}
			}
			fmt.Println("Recent ingests:")
			for _, e := range entries {
				fmt.Printf("  %s  [%d] %-5s %s %s\n",
					e.LoggedAt.Format("2006-01-02 15:04:05"), e.FileIndex, e.Status, e.FilePath, e.Detail)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination workbook path (required)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Max audit rows to show")
	cmd.MarkFlagRequired("output")
	return cmd
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
