package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coolbeans/gazette/pkg/gazette"
	"github.com/coolbeans/gazette/pkg/library"
)

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <file-or-directory>",
		Short: "Archive a gazette document",
		Long: `Store a gazette JSON document in the library for preview and commit.

The gazette number and date are read from a file name of the form
<number>_<YYYY-MM-DD>.json unless --number and --date are given. A
directory imports every *.json file in it.

Examples:
  gazette add gazettes/2289-43_2022-07-22.json
  gazette add extraordinary.json --number 2297-78 --date 2022-09-16
  gazette add gazettes/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, _ := cmd.Flags().GetString("number")
			date, _ := cmd.Flags().GetString("date")
			format, _ := cmd.Flags().GetString("format")
			force, _ := cmd.Flags().GetBool("force")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			lib, err := library.Open(cfg.LibraryPath)
			if err != nil {
				return fmt.Errorf("library not found at %s (run 'gazette init' first): %w", cfg.LibraryPath, err)
			}

			sourcePath := args[0]
			info, err := os.Stat(sourcePath)
			if err != nil {
				return err
			}
			if info.IsDir() {
				return importDirectory(lib, sourcePath)
			}

			parsedNumber, parsedDate := library.ParseFileName(sourcePath)
			if number == "" {
				number = parsedNumber
			}
			if date == "" {
				date = parsedDate
			}
			if date == "" {
				return fmt.Errorf("--date is required when the file name has no _YYYY-MM-DD suffix")
			}

			var documentFormat gazette.Format
			if format != "" {
				documentFormat, err = gazette.ParseFormat(format)
				if err != nil {
					return err
				}
			}

			data, err := os.ReadFile(sourcePath)
			if err != nil {
				return fmt.Errorf("failed to read source: %w", err)
			}

			fmt.Printf("Adding gazette: %s (%s)\n", number, date)
			fmt.Printf("  Source: %s (%d bytes)\n", sourcePath, len(data))

			entry, err := lib.AddGazette(number, data, library.AddOptions{
				Date:       date,
				Format:     documentFormat,
				SourceInfo: sourcePath,
				Force:      force,
			})
			if err != nil {
				return fmt.Errorf("failed to add gazette: %w", err)
			}
			printEntry(entry)
			return nil
		},
	}

	cmd.Flags().String("number", "", "Gazette number (derived from filename if omitted)")
	cmd.Flags().String("date", "", "Gazette date, YYYY-MM-DD (derived from filename if omitted)")
	cmd.Flags().String("format", "", "Document format: initial, amendment or person (detected if omitted)")
	cmd.Flags().Bool("force", false, "Overwrite an existing gazette with the same number")

	return cmd
}

func importDirectory(lib *library.Library, dirPath string) error {
	fmt.Printf("Importing gazettes from: %s\n", dirPath)
	report, err := library.ImportDirectory(lib, dirPath)
	if err != nil {
		return err
	}

	for _, entry := range report.Entries {
		switch entry.Status {
		case "added":
			successColor.Printf("  + %s\n", entry.Number)
		case "skipped":
			fmt.Printf("  = %s (already archived)\n", entry.Number)
		default:
			failureColor.Printf("  ! %s: %s\n", entry.Number, entry.Error)
		}
	}
	fmt.Printf("\nAttempted: %d  Added: %d  Skipped: %d  Failed: %d\n",
		report.TotalAttempted, report.Succeeded, report.Skipped, report.Failed)
	return nil
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived gazettes",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, _ := cmd.Flags().GetString("kind")
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")
			asJSON, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			lib, err := library.Open(cfg.LibraryPath)
			if err != nil {
				return fmt.Errorf("library not found at %s: %w", cfg.LibraryPath, err)
			}

			entries := lib.List()
			if kind != "" || from != "" || to != "" {
				if from == "" {
					from = "0001-01-01"
				}
				if to == "" {
					to = "9999-12-31"
				}
				entries, err = lib.ListBetween(gazette.Kind(kind), from, to)
				if err != nil {
					return err
				}
			}

			if asJSON {
				return printJSON(entries)
			}
			if len(entries) == 0 {
				fmt.Println("No gazettes archived.")
				return nil
			}

			headerColor.Printf("%-12s %-10s %-10s %-10s %s\n", "NUMBER", "DATE", "FORMAT", "STATUS", "WARNING")
			for _, entry := range entries {
				warning := ""
				if entry.Warning {
					warning = warningColor.Sprint("yes")
				}
				fmt.Printf("%-12s %-10s %-10s %-10s %s\n", entry.Number, entry.Date, entry.Format, statusText(entry.Status), warning)
			}

			stats := lib.Stats()
			fmt.Printf("\n%d gazettes (%d mindep, %d person)\n",
				stats.TotalGazettes, stats.ByKind[string(gazette.KindMinDep)], stats.ByKind[string(gazette.KindPerson)])
			return nil
		},
	}

	cmd.Flags().String("kind", "", "Filter by kind: mindep or person")
	cmd.Flags().String("from", "", "Earliest date, YYYY-MM-DD")
	cmd.Flags().String("to", "", "Latest date, YYYY-MM-DD")
	cmd.Flags().Bool("json", false, "Print JSON")

	return cmd
}

func infoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <number>",
		Short: "Show one archived gazette",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			lib, err := library.Open(cfg.LibraryPath)
			if err != nil {
				return fmt.Errorf("library not found at %s: %w", cfg.LibraryPath, err)
			}
			entry, err := lib.Info(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(entry)
			}

			headerColor.Printf("Gazette %s\n", entry.Number)
			fmt.Printf("  Date: %s\n", entry.Date)
			fmt.Printf("  Kind: %s\n", entry.Kind)
			printEntry(entry)
			if entry.SourceInfo != "" {
				fmt.Printf("  Source: %s\n", entry.SourceInfo)
			}
			if entry.CommittedAt != nil {
				fmt.Printf("  Committed: %s\n", entry.CommittedAt.Format("2006-01-02 15:04:05"))
			}
			if entry.Warning {
				warningColor.Println("  Flagged for attention")
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print JSON")
	return cmd
}

func printEntry(entry *library.GazetteEntry) {
	fmt.Printf("  Format: %s\n", entry.Format)
	fmt.Printf("  Status: %s\n", statusText(entry.Status))
	if entry.Error != "" {
		failureColor.Printf("  Error: %s\n", entry.Error)
	}
	if entry.Stats == nil {
		return
	}
	switch entry.Format {
	case gazette.FormatInitial:
		fmt.Printf("  Ministries: %d\n", entry.Stats.Ministries)
		fmt.Printf("  Departments: %d\n", entry.Stats.Departments)
	case gazette.FormatAmendment:
		fmt.Printf("  Entries: %d (%d in Column II)\n", entry.Stats.Entries, entry.Stats.ColumnIIEntries)
		fmt.Printf("  Detail lines: %d\n", entry.Stats.DetailLines)
	case gazette.FormatPerson:
		fmt.Printf("  Appointments: %d\n", entry.Stats.PersonAdds)
		fmt.Printf("  Terminations: %d\n", entry.Stats.PersonTerminates)
	}
}

func statusText(status library.GazetteStatus) string {
	switch status {
	case library.StatusCommitted:
		return successColor.Sprint(status)
	case library.StatusFailed:
		return failureColor.Sprint(status)
	case library.StatusReviewed:
		return warningColor.Sprint(status)
	}
	return string(status)
}
