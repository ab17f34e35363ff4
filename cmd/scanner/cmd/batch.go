package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/abnamro/repository-scanner/internal/infra/jobs"
)

var flagTargetsFile string

// scanTarget is one repository entry in the batch targets file.
type scanTarget struct {
	VCSInstance    string `yaml:"vcs_instance"`
	ProjectKey     string `yaml:"project_key"`
	RepositoryID   string `yaml:"repository_id"`
	RepositoryName string `yaml:"repository_name"`
	URL            string `yaml:"url"`
	Branch         string `yaml:"branch"`
}

type targetsFile struct {
	Repositories []scanTarget `yaml:"repositories"`
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Scan multiple repositories from a targets file in parallel",
	RunE: func(cmd *cobra.Command, _ []string) error {
		log := newLogger()

		processor, cfg, err := buildProcessor(log)
		if err != nil {
			return err
		}

		raw, err := os.ReadFile(flagTargetsFile)
		if err != nil {
			return fmt.Errorf("failed to read targets file: %w", err)
		}

		var targets targetsFile
		if err := yaml.Unmarshal(raw, &targets); err != nil {
			return fmt.Errorf("failed to parse targets file: %w", err)
		}
		if len(targets.Repositories) == 0 {
			return fmt.Errorf("targets file lists no repositories")
		}

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(cfg.Scanner.Concurrency)

		for _, target := range targets.Repositories {
			target := target
			g.Go(func() error {
				return processor.ProcessScan(ctx, jobs.ScanRepositoryPayload{
					TaskID:          uuid.NewString(),
					VCSInstanceName: target.VCSInstance,
					ProjectKey:      target.ProjectKey,
					RepositoryID:    target.RepositoryID,
					RepositoryName:  target.RepositoryName,
					RepositoryURL:   target.URL,
					BranchName:      target.Branch,
					ForceBase:       flagForceBase,
				})
			})
		}

		return g.Wait()
	},
}

func init() {
	batchCmd.Flags().StringVar(&flagTargetsFile, "targets", "", "YAML file listing repositories to scan")
	_ = batchCmd.MarkFlagRequired("targets")
}
