// Package cmd implements the scanner worker CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zricethezav/gitleaks/v8/detect"

	"github.com/abnamro/repository-scanner/internal/config"
	"github.com/abnamro/repository-scanner/internal/infra/apiclient"
	"github.com/abnamro/repository-scanner/internal/infra/scanner"
	"github.com/abnamro/repository-scanner/pkg/logger"
)

var (
	flagAPIURL    string
	flagRulesFile string
	flagVCSConfig string
	flagForceBase bool
)

var rootCmd = &cobra.Command{
	Use:   "resc-scanner",
	Short: "Secret scanner worker for the repository scanner platform",
	Long: `resc-scanner clones repositories, runs gitleaks over their git
history and reports scans and findings to the tracking API.

A branch that was never scanned, or whose rule pack changed, gets a BASE
scan over the full history. A branch whose latest commit advanced gets an
INCREMENTAL scan covering only the new commits. Unchanged branches are
skipped.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Tracking API base URL (env: SCANNER_API_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&flagRulesFile, "rules", "", "Gitleaks TOML rules file (env: SCANNER_RULES_FILE, empty for built-in rules)")
	rootCmd.PersistentFlags().StringVar(&flagVCSConfig, "vcs-config", "", "YAML file describing VCS instances and credentials (env: SCANNER_VCS_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&flagForceBase, "force-base-scan", false, "Force a BASE scan regardless of scan history")

	rootCmd.AddCommand(repoCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(dirCmd)
}

// buildProcessor assembles the scan processor shared by the subcommands.
func buildProcessor(log *logger.Logger) (*scanner.Processor, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	if flagAPIURL != "" {
		cfg.Scanner.APIBaseURL = flagAPIURL
	}
	if flagRulesFile != "" {
		cfg.Scanner.RulesFilePath = flagRulesFile
	}
	if flagVCSConfig != "" {
		cfg.Scanner.VCSConfigPath = flagVCSConfig
	}
	if flagForceBase {
		cfg.Scanner.ForceBaseScan = true
	}

	if cfg.Scanner.VCSConfigPath == "" {
		return nil, nil, fmt.Errorf("a VCS config file is required (--vcs-config or SCANNER_VCS_CONFIG)")
	}

	vcsConfig, err := scanner.LoadVCSConfig(cfg.Scanner.VCSConfigPath)
	if err != nil {
		return nil, nil, err
	}

	detector, err := newDetector(cfg)
	if err != nil {
		return nil, nil, err
	}

	api := apiclient.New(cfg.Scanner.APIBaseURL, log)
	return scanner.NewProcessor(api, detector, vcsConfig, &cfg.Scanner, log), cfg, nil
}

// newDetector builds the gitleaks detector, falling back to the built-in
// rules when the configured file does not exist.
func newDetector(cfg *config.Config) (*detect.Detector, error) {
	rulesPath := cfg.Scanner.RulesFilePath
	if rulesPath != "" {
		if _, err := os.Stat(rulesPath); err != nil {
			rulesPath = ""
		}
	}
	return scanner.NewDetector(rulesPath)
}

func newLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: "text",
		Output: os.Stderr,
	})
}
