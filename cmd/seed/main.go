// Command seed fills the database with demo data for local development.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/abnamro/repository-scanner/internal/app"
	"github.com/abnamro/repository-scanner/internal/config"
	"github.com/abnamro/repository-scanner/internal/infra/postgres"
	"github.com/abnamro/repository-scanner/pkg/domain/finding"
	"github.com/abnamro/repository-scanner/pkg/logger"
)

var ruleNames = []string{
	"generic-api-key",
	"aws-access-token",
	"github-pat",
	"private-key",
	"slack-webhook-url",
}

var auditors = []string{"alice@example.com", "bob@example.com"}

func main() {
	repoCount := flag.Int("repositories", 5, "Number of repositories to create")
	findingsPerScan := flag.Int("findings", 20, "Number of findings per scan")
	flag.Parse()

	if err := run(*repoCount, *findingsPerScan); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(repoCount, findingsPerScan int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{Level: "info", Format: "text", Output: os.Stderr})

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	vcsRepo := postgres.NewVCSRepository(db)
	findingRepo := postgres.NewFindingRepository(db)
	scanRepo := postgres.NewScanRepository(db)
	branchRepo := postgres.NewBranchRepository(db)

	scanSvc := app.NewScanService(scanRepo, findingRepo, log)
	branchSvc := app.NewBranchService(branchRepo, scanSvc, findingRepo, log)
	vcsSvc := app.NewVCSService(vcsRepo, log)
	repoSvc := app.NewRepositoryService(postgres.NewRepositoryStore(db), vcsRepo, branchSvc, log)
	ingestSvc := app.NewIngestService(scanRepo, branchRepo, findingRepo, log)
	findingSvc := app.NewFindingService(findingRepo, postgres.NewAuditRepository(db), log)
	packSvc := app.NewRulePackService(postgres.NewRulePackRepository(db), log)

	if _, err := packSvc.CreateRulePack(ctx, app.CreateRulePackInput{Version: "1.0.0", Activate: true}); err != nil {
		return fmt.Errorf("failed to create rule pack: %w", err)
	}

	if _, err := vcsSvc.CreateVCSInstance(ctx, app.CreateVCSInstanceInput{
		Name:         "github-demo",
		ProviderType: "GITHUB_PUBLIC",
		Hostname:     "github.com",
		Port:         443,
		Scheme:       "https",
		Organization: "demo-org",
	}); err != nil {
		return fmt.Errorf("failed to create vcs instance: %w", err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < repoCount; i++ {
		name := fmt.Sprintf("demo-repo-%d", i+1)
		repo, err := repoSvc.UpsertRepository(ctx, app.UpsertRepositoryInput{
			VCSInstanceName: "github-demo",
			ProjectKey:      "demo-org",
			RepositoryID:    fmt.Sprintf("%d", 1000+i),
			RepositoryName:  name,
			RepositoryURL:   "https://github.com/demo-org/" + name + ".git",
		})
		if err != nil {
			return fmt.Errorf("failed to upsert repository %s: %w", name, err)
		}

		branch, err := branchSvc.UpsertBranch(ctx, app.UpsertBranchInput{
			RepositoryID: repo.ID,
			BranchID:     "main",
			BranchName:   "main",
			LatestCommit: fakeCommit(rng),
		})
		if err != nil {
			return fmt.Errorf("failed to upsert branch: %w", err)
		}

		// One base scan plus a couple of incrementals per branch.
		for scanIdx := 0; scanIdx < 3; scanIdx++ {
			created, err := scanSvc.CreateScan(ctx, app.CreateScanInput{
				BranchID:          branch.ID,
				LastScannedCommit: fakeCommit(rng),
				RulePack:          "1.0.0",
				Timestamp:         time.Now().UTC().Add(time.Duration(scanIdx-3) * 24 * time.Hour),
			})
			if err != nil {
				return fmt.Errorf("failed to create scan: %w", err)
			}

			candidates := make([]app.CandidateFinding, findingsPerScan)
			for j := range candidates {
				candidates[j] = app.CandidateFinding{
					RuleName:        ruleNames[rng.Intn(len(ruleNames))],
					FilePath:        fmt.Sprintf("src/service/handler_%d.go", rng.Intn(40)),
					LineNumber:      rng.Intn(500) + 1,
					ColumnStart:     rng.Intn(60) + 1,
					ColumnEnd:       rng.Intn(60) + 62,
					CommitID:        fakeCommit(rng),
					CommitMessage:   "add integration config",
					CommitTimestamp: time.Now().UTC().Add(-time.Duration(rng.Intn(720)) * time.Hour),
					Author:          "Demo Author",
					Email:           "author@example.com",
				}
			}

			ingested, err := ingestSvc.IngestFindings(ctx, created.ID, candidates)
			if err != nil {
				return fmt.Errorf("failed to ingest findings: %w", err)
			}

			// Triage roughly a third of the findings.
			for _, f := range ingested {
				if rng.Intn(3) != 0 {
					continue
				}
				status := finding.AllStatuses()[rng.Intn(len(finding.AllStatuses()))]
				if _, err := findingSvc.AuditFinding(ctx, f.ID, app.AuditFindingInput{
					Status:  status.String(),
					Auditor: auditors[rng.Intn(len(auditors))],
					Comment: "seeded triage decision",
				}); err != nil {
					return fmt.Errorf("failed to audit finding: %w", err)
				}
			}
		}

		fmt.Printf("seeded repository %s\n", name)
	}

	fmt.Println("seeding complete")
	return nil
}

const hexDigits = "0123456789abcdef"

func fakeCommit(rng *rand.Rand) string {
	buf := make([]byte, 40)
	for i := range buf {
		buf[i] = hexDigits[rng.Intn(len(hexDigits))]
	}
	return string(buf)
}
