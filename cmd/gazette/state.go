package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coolbeans/gazette/pkg/gazette"
	"github.com/coolbeans/gazette/pkg/pipeline"
	"github.com/coolbeans/gazette/pkg/similarity"
	"github.com/coolbeans/gazette/pkg/state"
	"github.com/coolbeans/gazette/pkg/types"
)

func stateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect the stored ministry and portfolio state",
		Long: `Inspect, export or reset the versioned state that gazettes are
interpreted against.

Examples:
  gazette state latest
  gazette state latest --people
  gazette state show 2022-09-16
  gazette state show 2022-09-16 --gazette 2297-78
  gazette state export --output state.json
  gazette state clear --yes`,
	}
	cmd.PersistentFlags().Bool("json", false, "Print JSON")

	latestCmd := &cobra.Command{
		Use:   "latest",
		Short: "Show the most recent state",
		RunE: func(cmd *cobra.Command, args []string) error {
			people, _ := cmd.Flags().GetBool("people")

			env, err := openEnvironment(cmd, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			if people {
				portfolios, version, err := env.store.CurrentPortfolios(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
					return printJSON(map[string]any{"version": version, "portfolios": portfolios})
				}
				printPortfolios(version, portfolios)
				return nil
			}

			view, err := env.processor.LatestState(cmd.Context())
			if err != nil {
				return err
			}
			return printStateView(cmd, view)
		},
	}
	latestCmd.Flags().Bool("people", false, "Show person/portfolio state instead of departments")
	cmd.AddCommand(latestCmd)

	showCmd := &cobra.Command{
		Use:   "show <date>",
		Short: "Show the state saved for a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gazetteNumber, _ := cmd.Flags().GetString("gazette")

			env, err := openEnvironment(cmd, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			var view *pipeline.StateView
			if gazetteNumber != "" {
				view, err = env.processor.StateAt(cmd.Context(), state.Version{GazetteNumber: gazetteNumber, Date: args[0]})
			} else {
				view, err = env.processor.StateOn(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return printStateView(cmd, view)
		},
	}
	showCmd.Flags().String("gazette", "", "Gazette number when several share the date")
	cmd.AddCommand(showCmd)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the latest department state as an initial gazette",
		Long: `Write the latest department state in initial gazette layout, so it
can be archived and committed into a fresh database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputPath, _ := cmd.Flags().GetString("output")

			env, err := openEnvironment(cmd, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			view, err := env.processor.LatestState(cmd.Context())
			if err != nil {
				return err
			}
			document := gazette.InitialDocument{Ministries: view.Ministries}
			if outputPath == "" {
				return printJSON(document)
			}

			data, err := json.MarshalIndent(document, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal state: %w", err)
			}
			if err := os.WriteFile(outputPath, data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outputPath, err)
			}
			successColor.Printf("Exported %s to %s\n", view.Version, outputPath)
			return nil
		},
	}
	exportCmd.Flags().StringP("output", "o", "", "Output file (stdout if omitted)")
	cmd.AddCommand(exportCmd)

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			confirmed, _ := cmd.Flags().GetBool("yes")
			if !confirmed {
				return fmt.Errorf("refusing to clear state without --yes")
			}

			env, err := openEnvironment(cmd, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.store.Clear(cmd.Context()); err != nil {
				return err
			}
			warningColor.Printf("Cleared state in %s\n", env.config.DatabasePath)
			return nil
		},
	}
	clearCmd.Flags().Bool("yes", false, "Confirm deletion")
	cmd.AddCommand(clearCmd)

	return cmd
}

func printStateView(cmd *cobra.Command, view *pipeline.StateView) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(view)
	}
	if view.Ambiguous() {
		warningColor.Println("Several gazettes share this date; pick one with --gazette:")
		for _, candidate := range view.Candidates {
			fmt.Printf("  %s\n", candidate.GazetteNumber)
		}
		return nil
	}

	headerColor.Printf("State %s\n", view.Version)
	departments := 0
	for _, ministry := range view.Ministries {
		fmt.Printf("\n%s\n", ministry.Name)
		for i, department := range ministry.Departments {
			fmt.Printf("  %2d. %s\n", i+1, department)
		}
		departments += len(ministry.Departments)
	}
	fmt.Printf("\n%d ministries, %d departments\n", len(view.Ministries), departments)
	return nil
}

func printPortfolios(version state.Version, portfolios []types.Portfolio) {
	headerColor.Printf("Portfolios %s\n", version)
	for _, portfolio := range portfolios {
		fmt.Printf("  %-40s %-20s %s\n", portfolio.Ministry, portfolio.Position, portfolio.Person)
	}
	fmt.Printf("\n%d portfolios\n", len(portfolios))
}

func matchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match <name> [other-name]",
		Short: "Score ministry name similarity",
		Long: `Score two ministry names against each other, or one name against every
portfolio in the current person state.

Examples:
  gazette match "Minister of Health" "Minister of Health and Indigenous Medicine"
  gazette match "Minister of Higher Education" --threshold 60`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			matcher := similarity.NewMatcher()

			if len(args) == 2 {
				fmt.Printf("%.0f\n", matcher.Score(args[0], args[1]))
				return nil
			}

			env, err := openEnvironment(cmd, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			threshold := env.config.Similarity.Threshold
			if cmd.Flags().Changed("threshold") {
				threshold, _ = cmd.Flags().GetFloat64("threshold")
			}

			portfolios, _, err := env.store.CurrentPortfolios(cmd.Context())
			if err != nil {
				return err
			}
			candidates := matcher.Match(args[0], portfolios, threshold)
			if len(candidates) == 0 {
				fmt.Printf("No portfolio scores %.0f or more.\n", threshold)
				return nil
			}
			for _, candidate := range candidates {
				fmt.Printf("  %3.0f  %s (%s, %s)\n", candidate.Score, candidate.ExistingMinistry, candidate.ExistingPosition, candidate.ExistingPerson)
			}
			return nil
		},
	}
	cmd.Flags().Float64("threshold", 70, "Minimum score (defaults to similarity.threshold from config)")
	return cmd
}
