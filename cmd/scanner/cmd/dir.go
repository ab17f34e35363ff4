package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/abnamro/repository-scanner/internal/infra/scanner"
)

var (
	flagScanDir     string
	flagSinceCommit string
)

var dirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Scan a local git checkout and print findings as JSON",
	Long: `Scans the git history of a local checkout without reporting to the
tracking API. Useful for trying out rule packs before rolling them out.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		detector, err := scanner.NewDetector(flagRulesFile)
		if err != nil {
			return err
		}

		findings, err := scanner.DetectSecrets(detector, flagScanDir, flagSinceCommit)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(findings)
	},
}

func init() {
	dirCmd.Flags().StringVar(&flagScanDir, "dir", ".", "Path to the local git checkout")
	dirCmd.Flags().StringVar(&flagSinceCommit, "since-commit", "", "Only scan commits after this one")
}
