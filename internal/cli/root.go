// Package cli implements the schemectl command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"welfare-scheme-engine/internal/models"
	"welfare-scheme-engine/internal/services/catalog"
	"welfare-scheme-engine/internal/services/matcher"
	"welfare-scheme-engine/internal/services/scoring"
	"welfare-scheme-engine/internal/utils"
)

var (
	version = "dev"

	// Global flags
	catalogPath   string
	weightProfile string
	outputFmt     string
	logLevel      string

	// Profile flags shared by match and check commands
	flagAge        int
	flagGender     string
	flagState      string
	flagCategory   string
	flagIncome     int
	flagOccupation string
	flagBPL        bool
	flagFarmer     bool
	flagStudent    bool
	flagDisability bool
)

// SetVersionInfo sets version information from build flags.
func SetVersionInfo(v string) {
	version = v
}

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "schemectl",
	Short: "Match citizen profiles against government welfare schemes",
	Long: `schemectl scores a citizen's profile against a catalog of
government welfare schemes and produces a ranked, explainable list of
recommendations.

It provides:
  - Ranked scheme matching with gradient scoring and tiers
  - Per-criterion eligibility checks for a single scheme
  - Near-miss discovery ("one criterion away")
  - Catalog search, statistics, and export`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return utils.InitLogger(logLevel)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "data/schemes.json",
		"path to the schemes catalog JSON")
	rootCmd.PersistentFlags().StringVar(&weightProfile, "weight-profile", "balanced",
		"scoring weight profile (balanced, location_priority, economic_priority, demographic_priority, occupation_priority)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table",
		"output format (table, json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")

	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("schemectl %s\n", version)
	},
}

func addProfileFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&flagAge, "age", 0, "applicant age")
	cmd.Flags().StringVar(&flagGender, "gender", "", "applicant gender")
	cmd.Flags().StringVar(&flagState, "state", "", "applicant state")
	cmd.Flags().StringVar(&flagCategory, "category", "", "social category (sc, st, obc, general)")
	cmd.Flags().IntVar(&flagIncome, "income", 0, "annual income")
	cmd.Flags().StringVar(&flagOccupation, "occupation", "", "occupation")
	cmd.Flags().BoolVar(&flagBPL, "bpl", false, "below poverty line")
	cmd.Flags().BoolVar(&flagFarmer, "farmer", false, "is a farmer")
	cmd.Flags().BoolVar(&flagStudent, "student", false, "is a student")
	cmd.Flags().BoolVar(&flagDisability, "disability", false, "has a disability")
}

func profileFromFlags() models.UserProfile {
	return models.UserProfile{
		Age:          flagAge,
		Gender:       string(models.NormalizeGender(flagGender)),
		State:        flagState,
		Category:     flagCategory,
		AnnualIncome: flagIncome,
		Occupation:   flagOccupation,
		IsBPL:        flagBPL,
		IsFarmer:     flagFarmer,
		IsStudent:    flagStudent,
		Disability:   flagDisability,
	}
}

func loadStore() (*catalog.Store, error) {
	store := catalog.NewStore(catalogPath)
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", catalogPath, err)
	}
	return store, nil
}

func loadEngine() (*catalog.Store, *matcher.Engine, error) {
	store, err := loadStore()
	if err != nil {
		return nil, nil, err
	}
	scorer, err := scoring.NewEngine(weightProfile)
	if err != nil {
		return nil, nil, err
	}
	return store, matcher.NewEngine(store.All(), scorer), nil
}
