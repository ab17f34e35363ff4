// Package scanner wraps the gitleaks detection engine for BASE and
// INCREMENTAL repository scans.
package scanner

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	gitleaksconfig "github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
	"github.com/zricethezav/gitleaks/v8/report"
	"github.com/zricethezav/gitleaks/v8/sources"

	"github.com/abnamro/repository-scanner/internal/infra/apiclient"
)

// NewDetector builds a gitleaks detector from a TOML rules file. An empty
// path falls back to the gitleaks default rule set.
func NewDetector(rulesPath string) (*detect.Detector, error) {
	v := viper.New()
	v.SetConfigType("toml")

	raw := []byte(gitleaksconfig.DefaultConfig)
	if rulesPath != "" {
		var err error
		raw, err = os.ReadFile(rulesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read rules file: %w", err)
		}
	}

	if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	var vc gitleaksconfig.ViperConfig
	if err := v.Unmarshal(&vc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rules config: %w", err)
	}

	cfg, err := vc.Translate()
	if err != nil {
		return nil, fmt.Errorf("failed to translate rules config: %w", err)
	}

	return detect.NewDetector(cfg), nil
}

// DetectSecrets runs the detector over the repository's git history. A
// non-empty sinceCommit limits the walk to commits after it, which is how
// INCREMENTAL scans avoid re-reading history already covered by the chain.
func DetectSecrets(detector *detect.Detector, repoPath, sinceCommit string) ([]report.Finding, error) {
	logOpts := ""
	if sinceCommit != "" {
		logOpts = sinceCommit + "..HEAD"
	}

	gitCmd, err := sources.NewGitLogCmd(repoPath, logOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create git log command: %w", err)
	}

	findings, err := detector.DetectGit(gitCmd)
	if err != nil {
		return nil, fmt.Errorf("gitleaks detection failed: %w", err)
	}

	return findings, nil
}

// toCandidates converts gitleaks findings into the API's ingestion format.
func toCandidates(findings []report.Finding) []apiclient.CandidateFinding {
	candidates := make([]apiclient.CandidateFinding, len(findings))
	for i, f := range findings {
		commitTimestamp, err := time.Parse(time.RFC3339, f.Date)
		if err != nil {
			commitTimestamp = time.Now().UTC()
		}

		candidates[i] = apiclient.CandidateFinding{
			RuleName:        f.RuleID,
			FilePath:        f.File,
			LineNumber:      f.StartLine,
			ColumnStart:     f.StartColumn,
			ColumnEnd:       f.EndColumn,
			CommitID:        f.Commit,
			CommitMessage:   f.Message,
			CommitTimestamp: commitTimestamp,
			Author:          f.Author,
			Email:           f.Email,
		}
	}
	return candidates
}
