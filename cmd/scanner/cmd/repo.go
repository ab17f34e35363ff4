package cmd

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abnamro/repository-scanner/internal/infra/jobs"
)

var (
	flagVCSInstance string
	flagProjectKey  string
	flagRepoID      string
	flagRepoName    string
	flagRepoURL     string
	flagBranch      string
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Scan a single remote repository",
	RunE: func(cmd *cobra.Command, _ []string) error {
		log := newLogger()

		processor, _, err := buildProcessor(log)
		if err != nil {
			return err
		}

		return processor.ProcessScan(cmd.Context(), jobs.ScanRepositoryPayload{
			TaskID:          uuid.NewString(),
			VCSInstanceName: flagVCSInstance,
			ProjectKey:      flagProjectKey,
			RepositoryID:    flagRepoID,
			RepositoryName:  flagRepoName,
			RepositoryURL:   flagRepoURL,
			BranchName:      flagBranch,
			ForceBase:       flagForceBase,
		})
	},
}

func init() {
	repoCmd.Flags().StringVar(&flagVCSInstance, "vcs-instance", "", "Name of the VCS instance the repository lives on")
	repoCmd.Flags().StringVar(&flagProjectKey, "project", "", "Project key")
	repoCmd.Flags().StringVar(&flagRepoID, "repo-id", "", "VCS-native repository identifier")
	repoCmd.Flags().StringVar(&flagRepoName, "repo-name", "", "Repository name")
	repoCmd.Flags().StringVar(&flagRepoURL, "url", "", "Clone URL")
	repoCmd.Flags().StringVar(&flagBranch, "branch", "", "Branch to scan")

	for _, required := range []string{"vcs-instance", "project", "repo-id", "repo-name", "url", "branch"} {
		_ = repoCmd.MarkFlagRequired(required)
	}
}
