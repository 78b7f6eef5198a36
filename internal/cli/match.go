package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"welfare-scheme-engine/internal/services/matcher"
)

var (
	flagMaxResults int
	flagMinScore   int
	flagMatchCat   string
	flagMatchType  string
	flagReasons    bool
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Find schemes matching a citizen profile",
	Example: `  schemectl match --age 28 --gender male --state Bihar --category obc \
      --income 120000 --occupation farmer --bpl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, engine, err := loadEngine()
		if err != nil {
			return err
		}

		profile := profileFromFlags()
		matches := engine.FindMatches(&profile, matcher.MatchOptions{
			MaxResults:     flagMaxResults,
			MinScore:       flagMinScore,
			Category:       flagMatchCat,
			Type:           flagMatchType,
			IncludeReasons: flagReasons,
		})

		if outputFmt == "json" {
			return printJSON(matches)
		}

		if len(matches) == 0 {
			fmt.Println("No matching schemes found.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SCORE\tTIER\tSCHEME\tCATEGORY\tTYPE")
		fmt.Fprintln(tw, "-----\t----\t------\t--------\t----")
		for _, m := range matches {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
				m.Score, m.Tier, truncate(m.Scheme.Name, 40), m.Scheme.Category, m.Scheme.Type)
		}
		tw.Flush()

		if flagReasons {
			for _, m := range matches {
				fmt.Printf("\n%s (%d/100)\n", m.Scheme.Name, m.Score)
				for _, reason := range m.Reasons {
					fmt.Printf("  - %s\n", reason)
				}
			}
		}
		return nil
	},
}

var nearMissCmd = &cobra.Command{
	Use:   "near-misses",
	Short: "Show schemes the profile fails on exactly one criterion",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, engine, err := loadEngine()
		if err != nil {
			return err
		}

		profile := profileFromFlags()
		nearMisses := engine.FindNearMisses(&profile)

		if outputFmt == "json" {
			return printJSON(nearMisses)
		}

		if len(nearMisses) == 0 {
			fmt.Println("No near-misses found.")
			return nil
		}

		for _, nm := range nearMisses {
			fmt.Printf("%s (%s)\n", nm.Scheme.Name, nm.Scheme.Category)
			for _, failure := range nm.Failures {
				fmt.Printf("  blocked by: %s\n", failure)
			}
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <scheme-id>",
	Short: "Check a profile against every criterion of one scheme",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, engine, err := loadEngine()
		if err != nil {
			return err
		}

		profile := profileFromFlags()
		report := engine.CheckEligibility(&profile, args[0])

		if outputFmt == "json" {
			return printJSON(report)
		}

		if !report.Found {
			fmt.Printf("Scheme %q not found in catalog.\n", args[0])
			return nil
		}

		fmt.Printf("%s\n", report.SchemeName)
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CHECK\tRESULT\tDETAIL")
		fmt.Fprintln(tw, "-----\t------\t------")
		for _, c := range report.Checks {
			result := "pass"
			if !c.Passed {
				result = "FAIL"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, result, c.Reason)
		}
		tw.Flush()

		fmt.Printf("\nEligible: %t (score %d/100)\n", report.Eligible, report.Score)
		fmt.Println(report.Recommendation)
		return nil
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare <scheme-id> <scheme-id> [scheme-id...]",
	Short: "Compare the profile's fit across several schemes",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, engine, err := loadEngine()
		if err != nil {
			return err
		}

		profile := profileFromFlags()
		entries := engine.CompareSchemes(&profile, args)

		if outputFmt == "json" {
			return printJSON(entries)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SCORE\tTIER\tSCHEME\tNOTE")
		fmt.Fprintln(tw, "-----\t----\t------\t----")
		for _, e := range entries {
			note := ""
			switch {
			case !e.Found:
				note = "not found"
			case !e.Eligible:
				note = e.RejectionReason
			}
			name := e.SchemeName
			if name == "" {
				name = e.SchemeID
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.Score, e.Tier, truncate(name, 40), note)
		}
		tw.Flush()
		return nil
	},
}

var completenessCmd = &cobra.Command{
	Use:   "completeness",
	Short: "Show how complete the given profile is",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, engine, err := loadEngine()
		if err != nil {
			return err
		}

		profile := profileFromFlags()
		result := engine.GetProfileCompleteness(&profile)

		if outputFmt == "json" {
			return printJSON(result)
		}

		fmt.Printf("Profile completeness: %d%%\n", result.Percentage)
		if len(result.Suggestions) > 0 {
			fmt.Println("\nSuggestions:")
			for _, s := range result.Suggestions {
				fmt.Printf("  - %s\n", s)
			}
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{matchCmd, nearMissCmd, checkCmd, compareCmd, completenessCmd} {
		addProfileFlags(cmd)
		rootCmd.AddCommand(cmd)
	}

	matchCmd.Flags().IntVar(&flagMaxResults, "max-results", 0, "maximum results (default 20, ceiling 100)")
	matchCmd.Flags().IntVar(&flagMinScore, "min-score", 0, "minimum score to include (default 30)")
	matchCmd.Flags().StringVar(&flagMatchCat, "scheme-category", "", "restrict to one catalog category")
	matchCmd.Flags().StringVar(&flagMatchType, "scheme-type", "", "restrict to central, state, or both")
	matchCmd.Flags().BoolVar(&flagReasons, "reasons", false, "include human-readable match reasons")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
