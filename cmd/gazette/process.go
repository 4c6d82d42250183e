package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coolbeans/gazette/pkg/diagnostic"
	"github.com/coolbeans/gazette/pkg/pipeline"
	"github.com/coolbeans/gazette/pkg/types"
)

func previewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the transactions a gazette would produce",
		Long: `Parse an archived gazette against the current state and print the
inferred transactions without changing anything.

Examples:
  gazette preview amendment 2297-78
  gazette preview person 2301-12 --json`,
	}
	cmd.PersistentFlags().Bool("json", false, "Print JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "initial <number>",
		Short: "Preview an initial ministry listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(cmd, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			preview, err := env.processor.PreviewInitial(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(preview)
			}
			headerColor.Printf("Gazette %s (%s)\n", preview.GazetteNumber, preview.Date)
			for _, ministry := range preview.Ministries {
				fmt.Printf("  %s (%d)\n", ministry.Name, len(ministry.Departments))
			}
			fmt.Printf("\n%d ministries, %d departments\n", len(preview.Ministries), preview.Departments)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "amendment <number>",
		Short: "Preview ministry/department changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(cmd, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			preview, err := env.processor.PreviewAmendment(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(preview)
			}
			headerColor.Printf("Gazette %s (%s)\n", preview.GazetteNumber, preview.Date)
			if !preview.BasedOn.IsZero() {
				fmt.Printf("Based on: %s\n", preview.BasedOn)
			}
			fmt.Println()
			for _, transaction := range preview.Transactions {
				printDepartmentTransaction(transaction)
			}
			fmt.Printf("\nMoves: %d  Adds: %d  Terminates: %d\n", len(preview.Moves), len(preview.Adds), len(preview.Terminates))
			printDiagnostics(preview.Diagnostics)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "person <number>",
		Short: "Preview person/portfolio changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(cmd, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			preview, err := env.processor.PreviewPerson(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(preview)
			}
			headerColor.Printf("Gazette %s (%s)\n", preview.GazetteNumber, preview.Date)
			if !preview.BasedOn.IsZero() {
				fmt.Printf("Based on: %s\n", preview.BasedOn)
			}
			fmt.Println()
			printPersonTransactions(preview.Transactions)
			return nil
		},
	})

	return cmd
}

func commitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Apply a gazette to state and export CSVs",
		Long: `Apply a gazette's transactions to the stored state and write CSV
exports. Without --reviewed, the transactions saved by a reviewer are
used, or a fresh preview when nothing was saved.

Examples:
  gazette commit initial 2289-43
  gazette commit amendment 2297-78 --reviewed edited.json
  gazette commit person 2301-12`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "initial <number>",
		Short: "Commit an initial ministry listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(cmd, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			result, err := env.processor.CommitInitial(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printCommitResult(result)
			return nil
		},
	})

	amendmentCmd := &cobra.Command{
		Use:   "amendment <number>",
		Short: "Commit ministry/department changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reviewedPath, _ := cmd.Flags().GetString("reviewed")

			var reviewed []types.Transaction
			if reviewedPath != "" {
				if err := readJSONFile(reviewedPath, &reviewed); err != nil {
					return err
				}
				if reviewed == nil {
					reviewed = []types.Transaction{}
				}
			}

			env, err := openEnvironment(cmd, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			result, err := env.processor.CommitAmendment(cmd.Context(), args[0], reviewed)
			if err != nil {
				return err
			}
			printCommitResult(result)
			return nil
		},
	}
	amendmentCmd.Flags().String("reviewed", "", "JSON file with the reviewed transaction list")
	cmd.AddCommand(amendmentCmd)

	personCmd := &cobra.Command{
		Use:   "person <number>",
		Short: "Commit person/portfolio changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reviewedPath, _ := cmd.Flags().GetString("reviewed")

			var reviewed *types.PersonTransactions
			if reviewedPath != "" {
				reviewed = &types.PersonTransactions{}
				if err := readJSONFile(reviewedPath, reviewed); err != nil {
					return err
				}
			}

			env, err := openEnvironment(cmd, nil)
			if err != nil {
				return err
			}
			defer env.Close()

			result, err := env.processor.CommitPerson(cmd.Context(), args[0], reviewed)
			if err != nil {
				return err
			}
			printCommitResult(result)
			return nil
		},
	}
	personCmd.Flags().String("reviewed", "", "JSON file with the reviewed transaction groups")
	cmd.AddCommand(personCmd)

	return cmd
}

func printDepartmentTransaction(transaction types.Transaction) {
	position := ""
	if transaction.Position != nil {
		position = fmt.Sprintf(" at %d", *transaction.Position)
	}
	switch transaction.Type {
	case types.TransactionMove:
		warningColor.Printf("  MOVE       %s: %s -> %s%s\n", transaction.Department, transaction.FromMinistry, transaction.ToMinistry, position)
	case types.TransactionAdd:
		successColor.Printf("  ADD        %s -> %s%s\n", transaction.Department, transaction.ToMinistry, position)
	case types.TransactionTerminate:
		failureColor.Printf("  TERMINATE  %s (from %s)\n", transaction.Department, transaction.FromMinistry)
	default:
		fmt.Printf("  %-10s %s\n", transaction.Type, transaction.Department)
	}
}

func printPersonTransactions(transactions types.PersonTransactions) {
	for _, transaction := range transactions.Moves {
		warningColor.Printf("  MOVE       %s: %s (%s) -> %s (%s)\n", transaction.Person,
			transaction.FromMinistry, transaction.FromPosition, transaction.ToMinistry, transaction.ToPosition)
	}
	for _, transaction := range transactions.Adds {
		successColor.Printf("  ADD        %s: %s (%s)\n", transaction.Person, transaction.Ministry, transaction.Position)
		for _, candidate := range transaction.SuggestedContinuations {
			fmt.Printf("               ~ %s held by %s (%.0f)\n", candidate.ExistingMinistry, candidate.ExistingPerson, candidate.Score)
		}
	}
	for _, transaction := range transactions.Terminates {
		failureColor.Printf("  TERMINATE  %s: %s (%s)\n", transaction.Person, transaction.Ministry, transaction.Position)
	}
	for _, transaction := range transactions.Renames {
		fmt.Printf("  RENAME     %s: %s -> %s\n", transaction.Person, transaction.FromMinistry, transaction.ToMinistry)
	}
	fmt.Printf("\nMoves: %d  Adds: %d  Terminates: %d\n", len(transactions.Moves), len(transactions.Adds), len(transactions.Terminates))
}

func printDiagnostics(diagnostics diagnostic.List) {
	if len(diagnostics) == 0 {
		return
	}
	warningColor.Printf("\n%d skipped:\n", len(diagnostics))
	for _, item := range diagnostics {
		warningColor.Printf("  %s\n", item)
	}
}

func printCommitResult(result *pipeline.CommitResult) {
	successColor.Printf("Committed %s as %s\n", result.GazetteNumber, result.Version)
	if !result.BasedOn.IsZero() {
		fmt.Printf("  Based on: %s\n", result.BasedOn)
	}
	fmt.Printf("  Transactions: %d\n", result.Transactions)
	for _, file := range result.Files {
		fmt.Printf("  Wrote: %s\n", file)
	}
	printDiagnostics(result.Diagnostics)
}
