package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	flagSearchLimit  int
	flagExportFormat string
	flagExportOut    string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List schemes in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore()
		if err != nil {
			return err
		}

		schemes := store.All()
		if outputFmt == "json" {
			return printJSON(schemes)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tTYPE")
		fmt.Fprintln(tw, "--\t----\t--------\t----")
		for _, s := range schemes {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, truncate(s.Name, 45), s.Category, s.Type)
		}
		tw.Flush()
		fmt.Printf("\n%d schemes\n", len(schemes))
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search across the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore()
		if err != nil {
			return err
		}

		results := store.Search(args[0], flagSearchLimit)
		if outputFmt == "json" {
			return printJSON(results)
		}

		if len(results) == 0 {
			fmt.Println("No schemes found.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RELEVANCE\tID\tNAME\tCATEGORY")
		fmt.Fprintln(tw, "---------\t--\t----\t--------")
		for _, r := range results {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Score, r.Scheme.ID, truncate(r.Scheme.Name, 45), r.Scheme.Category)
		}
		tw.Flush()
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore()
		if err != nil {
			return err
		}

		stats := store.Statistics()
		if outputFmt == "json" {
			return printJSON(stats)
		}

		fmt.Printf("Total schemes: %d\n", stats.TotalSchemes)
		fmt.Printf("All-India: %d | state-specific states: %d\n",
			stats.AllIndiaSchemes, stats.StateSpecificStates)

		fmt.Println("\nBy category:")
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, cat := range store.Categories() {
			fmt.Fprintf(tw, "  %s\t%d\n", cat, stats.Categories[cat])
		}
		tw.Flush()

		fmt.Println("\nEligibility coverage:")
		tw = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "  age-limited\t%d\n", stats.WithAgeLimit)
		fmt.Fprintf(tw, "  income-limited\t%d\n", stats.WithIncomeLimit)
		fmt.Fprintf(tw, "  gender-specific\t%d\n", stats.GenderSpecific)
		fmt.Fprintf(tw, "  occupation-targeted\t%d\n", stats.WithOccupation)
		fmt.Fprintf(tw, "  BPL-specific\t%d\n", stats.BPLSpecific)
		tw.Flush()
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog as JSON or CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore()
		if err != nil {
			return err
		}

		out := os.Stdout
		if flagExportOut != "" {
			f, err := os.Create(flagExportOut)
			if err != nil {
				return fmt.Errorf("creating %s: %w", flagExportOut, err)
			}
			defer f.Close()
			out = f
		}

		switch flagExportFormat {
		case "csv":
			return store.ExportCSV(out, nil)
		default:
			return store.ExportJSON(out, nil)
		}
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the catalog and report problems",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore()
		if err != nil {
			return err
		}

		report := store.Report()
		duplicates := store.Duplicates()

		if outputFmt == "json" {
			return printJSON(map[string]interface{}{
				"report":     report,
				"duplicates": duplicates,
			})
		}

		fmt.Printf("Validated %d schemes: %d valid, %d invalid\n",
			report.TotalSchemes, report.Valid, report.Invalid)
		for _, e := range report.Errors {
			fmt.Printf("  error: %s\n", e)
		}
		for _, warn := range report.Warnings {
			fmt.Printf("  warning: %s\n", warn)
		}
		for _, dup := range duplicates {
			fmt.Printf("  duplicate id %q at index %d and %d\n", dup.ID, dup.FirstIndex, dup.DuplicateIndex)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(validateCmd)

	searchCmd.Flags().IntVar(&flagSearchLimit, "limit", 20, "maximum search results")
	exportCmd.Flags().StringVar(&flagExportFormat, "format", "json", "export format (json, csv)")
	exportCmd.Flags().StringVar(&flagExportOut, "out", "", "output file (default stdout)")
}

func printJSON(data interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
