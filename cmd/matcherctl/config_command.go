package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/windlayer/matcher/internal/policyconfig"
)

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  matcherctl config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  matcherctl config print [--path PATH]")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/matcherctl/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfgPath, err := resolveConfigPath(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if _, err := policyconfig.LoadFromPath(cfgPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/matcherctl/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfgPath, err := resolveConfigPath(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		eff, err := policyconfig.LoadFromPath(cfgPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("%-42s %s\n", "settle_idle_timeout:", eff.Options.SettleIdleTimeout)
		fmt.Printf("%-42s %s\n", "settle_max_wait:", eff.Options.SettleMaxWait)
		fmt.Printf("%-42s %s\n", "min_idle_time_before_match:", eff.Options.MinIdleTimeBeforeMatch)
		fmt.Printf("%-42s %s\n", "generic_title_extended_wait:", eff.Options.GenericTitleExtendedWait)
		fmt.Printf("%-42s %s\n", "workspace_settle_timeout:", eff.Options.WorkspaceSettleTimeout)
		fmt.Printf("%-42s %s\n", "operation_settle_delay:", eff.Options.OperationSettleDelay)
		fmt.Printf("%-42s %s\n", "drift_detection_window:", eff.Options.DriftDetectionWindow)
		fmt.Printf("%-42s %.2f\n", "min_score_spread:", eff.Options.MinScoreSpread)
		fmt.Printf("%-42s %.2f\n", "ambiguous_similarity_threshold:", eff.Options.AmbiguousSimilarityThreshold)
		fmt.Printf("%-42s %.2f\n", "ambiguous_similarity_threshold_generic:", eff.Options.AmbiguousSimilarityThresholdGeneric)
		fmt.Printf("%-42s %.2f\n", "title_migration_threshold:", eff.Options.TitleMigrationThreshold)
		fmt.Printf("%-42s %.2f\n", "title_change_significance_ratio:", eff.Options.TitleChangeSignificanceRatio)
		fmt.Printf("%-42s %d\n", "position_tolerance_px:", eff.Options.PositionTolerancePx)
		fmt.Printf("%-42s %d\n", "max_drift_retries:", eff.Options.MaxDriftRetries)
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func resolveConfigPath(flagPath string) (string, error) {
	if flagPath != "" {
		return flagPath, nil
	}
	return defaultConfigPath()
}
