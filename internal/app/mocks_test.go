package app

import (
	"context"
	"time"

	"github.com/abnamro/repository-scanner/pkg/domain/audit"
	"github.com/abnamro/repository-scanner/pkg/domain/branch"
	"github.com/abnamro/repository-scanner/pkg/domain/finding"
	"github.com/abnamro/repository-scanner/pkg/domain/scan"
	"github.com/abnamro/repository-scanner/pkg/domain/shared"
	"github.com/abnamro/repository-scanner/pkg/pagination"
)

// mockScanRepo implements scan.Repository in memory, replicating the
// branch-serialized increment numbering of the real store.
type mockScanRepo struct {
	scans      map[int64]*scan.Scan
	nextID     int64
	chainLinks []scan.ChainLink
	chainErr   error
	createErr  error
}

func newMockScanRepo() *mockScanRepo {
	return &mockScanRepo{scans: make(map[int64]*scan.Scan)}
}

func (m *mockScanRepo) Create(_ context.Context, s *scan.Scan, forceBase bool) error {
	if m.createErr != nil {
		return m.createErr
	}
	previous := m.latest(s.BranchID)
	plan := scan.PlanNext(previous, forceBase)
	s.ScanType = plan.ScanType
	s.IncrementNumber = plan.IncrementNumber
	m.nextID++
	s.ID = m.nextID
	m.scans[s.ID] = s
	return nil
}

func (m *mockScanRepo) latest(branchID int64) *scan.Scan {
	var latest *scan.Scan
	for _, s := range m.scans {
		if s.BranchID != branchID {
			continue
		}
		if latest == nil || s.Timestamp.After(latest.Timestamp) {
			latest = s
		}
	}
	return latest
}

func (m *mockScanRepo) GetByID(_ context.Context, id int64) (*scan.Scan, error) {
	s, ok := m.scans[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return s, nil
}

func (m *mockScanRepo) Update(_ context.Context, s *scan.Scan) error {
	if _, ok := m.scans[s.ID]; !ok {
		return shared.ErrNotFound
	}
	m.scans[s.ID] = s
	return nil
}

func (m *mockScanRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.scans[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.scans, id)
	return nil
}

func (m *mockScanRepo) List(_ context.Context, page pagination.Pagination) (pagination.Result[*scan.Scan], error) {
	all := make([]*scan.Scan, 0, len(m.scans))
	for _, s := range m.scans {
		all = append(all, s)
	}
	return pagination.NewResult(all, int64(len(all)), page), nil
}

func (m *mockScanRepo) ListByBranch(_ context.Context, branchID int64, page pagination.Pagination) (pagination.Result[*scan.Scan], error) {
	var out []*scan.Scan
	for _, s := range m.scans {
		if s.BranchID == branchID {
			out = append(out, s)
		}
	}
	return pagination.NewResult(out, int64(len(out)), page), nil
}

func (m *mockScanRepo) LatestForBranch(_ context.Context, branchID int64) (*scan.Scan, error) {
	latest := m.latest(branchID)
	if latest == nil {
		return nil, shared.ErrNotFound
	}
	return latest, nil
}

func (m *mockScanRepo) ChainLinks(_ context.Context, _ int64, _ time.Time) ([]scan.ChainLink, error) {
	if m.chainErr != nil {
		return nil, m.chainErr
	}
	return m.chainLinks, nil
}

// mockBranchRepo implements branch.Repository in memory.
type mockBranchRepo struct {
	branches map[int64]*branch.Branch
	nextID   int64
}

func newMockBranchRepo() *mockBranchRepo {
	return &mockBranchRepo{branches: make(map[int64]*branch.Branch)}
}

func (m *mockBranchRepo) add(b *branch.Branch) *branch.Branch {
	m.nextID++
	b.ID = m.nextID
	m.branches[b.ID] = b
	return b
}

func (m *mockBranchRepo) Create(_ context.Context, b *branch.Branch) error {
	m.add(b)
	return nil
}

func (m *mockBranchRepo) GetByID(_ context.Context, id int64) (*branch.Branch, error) {
	b, ok := m.branches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return b, nil
}

func (m *mockBranchRepo) GetByNaturalKey(_ context.Context, repositoryID int64, branchID string) (*branch.Branch, error) {
	for _, b := range m.branches {
		if b.RepositoryID == repositoryID && b.BranchID == branchID {
			return b, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockBranchRepo) Upsert(_ context.Context, b *branch.Branch) error {
	for _, existing := range m.branches {
		if existing.RepositoryID == b.RepositoryID && existing.BranchID == b.BranchID {
			b.ID = existing.ID
			m.branches[b.ID] = b
			return nil
		}
	}
	m.add(b)
	return nil
}

func (m *mockBranchRepo) Update(_ context.Context, b *branch.Branch) error {
	if _, ok := m.branches[b.ID]; !ok {
		return shared.ErrNotFound
	}
	m.branches[b.ID] = b
	return nil
}

func (m *mockBranchRepo) Delete(_ context.Context, id int64) error {
	delete(m.branches, id)
	return nil
}

func (m *mockBranchRepo) ListByRepository(_ context.Context, repositoryID int64, page pagination.Pagination) (pagination.Result[*branch.Branch], error) {
	var out []*branch.Branch
	for _, b := range m.branches {
		if b.RepositoryID == repositoryID {
			out = append(out, b)
		}
	}
	return pagination.NewResult(out, int64(len(out)), page), nil
}

// mockFindingRepo implements finding.Repository in memory with the same
// identity-tuple dedup the real store enforces via its unique constraint.
type mockFindingRepo struct {
	findings     map[int64]*finding.Finding
	scanFindings map[int64][]int64
	nextID       int64
	statuses     map[int64]finding.Status
	aggregate    finding.StatusAggregate
	ruleAggs     []finding.RuleAggregate
	rules        []string
	reconcileErr error
}

func newMockFindingRepo() *mockFindingRepo {
	return &mockFindingRepo{
		findings:     make(map[int64]*finding.Finding),
		scanFindings: make(map[int64][]int64),
		statuses:     make(map[int64]finding.Status),
	}
}

func (m *mockFindingRepo) add(f *finding.Finding) *finding.Finding {
	m.nextID++
	f.ID = m.nextID
	m.findings[f.ID] = f
	return f
}

func (m *mockFindingRepo) GetByID(_ context.Context, id int64) (*finding.Finding, error) {
	f, ok := m.findings[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return f, nil
}

func (m *mockFindingRepo) List(_ context.Context, _ finding.Filter, page pagination.Pagination) (pagination.Result[*finding.Finding], error) {
	all := make([]*finding.Finding, 0, len(m.findings))
	for _, f := range m.findings {
		all = append(all, f)
	}
	return pagination.NewResult(all, int64(len(all)), page), nil
}

func (m *mockFindingRepo) ListByScans(_ context.Context, scanIDs []int64, page pagination.Pagination) (pagination.Result[*finding.Finding], error) {
	seen := make(map[int64]struct{})
	var out []*finding.Finding
	for _, scanID := range scanIDs {
		for _, findingID := range m.scanFindings[scanID] {
			if _, dup := seen[findingID]; dup {
				continue
			}
			seen[findingID] = struct{}{}
			out = append(out, m.findings[findingID])
		}
	}
	return pagination.NewResult(out, int64(len(out)), page), nil
}

func (m *mockFindingRepo) PatchComment(_ context.Context, id int64, comment string) error {
	f, ok := m.findings[id]
	if !ok {
		return shared.ErrNotFound
	}
	f.Comment = comment
	return nil
}

func (m *mockFindingRepo) PatchEventSentOn(_ context.Context, id int64, sentOn time.Time) error {
	f, ok := m.findings[id]
	if !ok {
		return shared.ErrNotFound
	}
	f.EventSentOn = &sentOn
	return nil
}

func (m *mockFindingRepo) Reconcile(_ context.Context, repositoryID, scanID int64, candidates []*finding.Finding) ([]*finding.Finding, error) {
	if m.reconcileErr != nil {
		return nil, m.reconcileErr
	}
	var existing []*finding.Finding
	for _, f := range m.findings {
		if f.RepositoryID == repositoryID {
			existing = append(existing, f)
		}
	}
	rec := finding.Reconcile(existing, candidates)

	result := make([]*finding.Finding, 0, len(rec.Reused)+len(rec.Fresh))
	result = append(result, rec.Reused...)
	for _, f := range rec.Fresh {
		result = append(result, m.add(f))
	}
	for _, f := range result {
		m.scanFindings[scanID] = append(m.scanFindings[scanID], f.ID)
	}
	return result, nil
}

func (m *mockFindingRepo) CountByStatus(_ context.Context, _ []int64) (finding.StatusAggregate, error) {
	return m.aggregate, nil
}

func (m *mockFindingRepo) CountByStatusPerRule(_ context.Context, _ []int64) ([]finding.RuleAggregate, error) {
	return m.ruleAggs, nil
}

func (m *mockFindingRepo) CurrentStatus(_ context.Context, findingID int64) (finding.Status, error) {
	if status, ok := m.statuses[findingID]; ok {
		return status, nil
	}
	return finding.StatusNotAnalyzed, nil
}

func (m *mockFindingRepo) DetectedRules(_ context.Context, _ []int64) ([]string, error) {
	return m.rules, nil
}

// mockAuditRepo implements audit.Repository in memory.
type mockAuditRepo struct {
	audits    []*audit.Audit
	nextID    int64
	createErr error
}

func newMockAuditRepo() *mockAuditRepo {
	return &mockAuditRepo{}
}

func (m *mockAuditRepo) Create(_ context.Context, a *audit.Audit) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	a.ID = m.nextID
	m.audits = append(m.audits, a)
	return nil
}

func (m *mockAuditRepo) CreateBatch(ctx context.Context, audits []*audit.Audit) error {
	for _, a := range audits {
		if err := m.Create(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockAuditRepo) ListByFinding(_ context.Context, findingID int64, page pagination.Pagination) (pagination.Result[*audit.Audit], error) {
	var out []*audit.Audit
	for i := len(m.audits) - 1; i >= 0; i-- {
		if m.audits[i].FindingID == findingID {
			out = append(out, m.audits[i])
		}
	}
	return pagination.NewResult(out, int64(len(out)), page), nil
}

func (m *mockAuditRepo) LatestForFinding(_ context.Context, findingID int64) (*audit.Audit, error) {
	for i := len(m.audits) - 1; i >= 0; i-- {
		if m.audits[i].FindingID == findingID {
			return m.audits[i], nil
		}
	}
	return nil, shared.ErrNotFound
}
