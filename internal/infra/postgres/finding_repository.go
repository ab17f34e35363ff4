package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abnamro/repository-scanner/pkg/domain/finding"
	"github.com/abnamro/repository-scanner/pkg/domain/shared"
	"github.com/abnamro/repository-scanner/pkg/pagination"
)

// FindingRepository implements finding.Repository using PostgreSQL.
type FindingRepository struct {
	db *DB
}

// NewFindingRepository creates a new FindingRepository.
func NewFindingRepository(db *DB) *FindingRepository {
	return &FindingRepository{db: db}
}

const findingSelectQuery = `
	SELECT f.id, f.repository_id, f.rule_name, f.file_path, f.line_number,
		f.column_start, f.column_end, f.commit_id, f.commit_message,
		f.commit_timestamp, f.author, f.email, f.comment, f.event_sent_on
	FROM finding f
`

// latestAuditJoin resolves a finding's current status as the status of its
// audit row with the highest id, NOT_ANALYZED when it has none.
const latestAuditJoin = `
	LEFT JOIN LATERAL (
		SELECT a.status FROM audit a
		WHERE a.finding_id = f.id
		ORDER BY a.id DESC
		LIMIT 1
	) la ON true
`

// GetByID retrieves a finding by ID.
func (r *FindingRepository) GetByID(ctx context.Context, id int64) (*finding.Finding, error) {
	row := r.db.QueryRowContext(ctx, findingSelectQuery+" WHERE f.id = $1", id)
	return r.scanFinding(row.Scan)
}

// List returns findings matching the filter.
func (r *FindingRepository) List(ctx context.Context, filter finding.Filter, page pagination.Pagination) (pagination.Result[*finding.Finding], error) {
	whereClause, args := r.buildWhereClause(filter)

	countQuery := `SELECT COUNT(DISTINCT f.id) FROM finding f ` + latestAuditJoin
	baseQuery := findingSelectQuery + latestAuditJoin
	if whereClause != "" {
		countQuery += " WHERE " + whereClause
		baseQuery += " WHERE " + whereClause
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return pagination.Result[*finding.Finding]{}, fmt.Errorf("failed to count findings: %w", err)
	}

	baseQuery += fmt.Sprintf(" ORDER BY f.id LIMIT %d OFFSET %d", page.Limit, page.Offset())
	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return pagination.Result[*finding.Finding]{}, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	findings, err := r.collectFindings(rows)
	if err != nil {
		return pagination.Result[*finding.Finding]{}, err
	}

	return pagination.NewResult(findings, total, page), nil
}

// ListByScans returns the distinct findings associated with the given scans.
func (r *FindingRepository) ListByScans(ctx context.Context, scanIDs []int64, page pagination.Pagination) (pagination.Result[*finding.Finding], error) {
	if len(scanIDs) == 0 {
		return pagination.NewResult[*finding.Finding](nil, 0, page), nil
	}

	placeholders, args := int64Placeholders(scanIDs, 1)
	where := fmt.Sprintf(
		" WHERE f.id IN (SELECT DISTINCT finding_id FROM scan_finding WHERE scan_id IN (%s))",
		placeholders,
	)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM finding f`+where, args...).Scan(&total); err != nil {
		return pagination.Result[*finding.Finding]{}, fmt.Errorf("failed to count findings: %w", err)
	}

	query := findingSelectQuery + where + fmt.Sprintf(" ORDER BY f.id LIMIT %d OFFSET %d", page.Limit, page.Offset())
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return pagination.Result[*finding.Finding]{}, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	findings, err := r.collectFindings(rows)
	if err != nil {
		return pagination.Result[*finding.Finding]{}, err
	}

	return pagination.NewResult(findings, total, page), nil
}

// PatchComment updates a finding's comment.
func (r *FindingRepository) PatchComment(ctx context.Context, id int64, comment string) error {
	return r.patch(ctx, id, `UPDATE finding SET comment = $2 WHERE id = $1`, comment)
}

// PatchEventSentOn records the notification dispatch time.
func (r *FindingRepository) PatchEventSentOn(ctx context.Context, id int64, sentOn time.Time) error {
	return r.patch(ctx, id, `UPDATE finding SET event_sent_on = $2 WHERE id = $1`, sentOn)
}

func (r *FindingRepository) patch(ctx context.Context, id int64, query string, value any) error {
	result, err := r.db.ExecContext(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("failed to patch finding: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: finding %d", shared.ErrNotFound, id)
	}

	return nil
}

// Reconcile dedups candidates against the repository's existing findings and
// associates every resulting finding with scanID. The whole operation runs
// in one transaction so a concurrent ingestion for the same repository
// cannot race past the existing-findings read; the identity tuple uniqueness
// constraint closes the remaining window and surfaces as a conflict error.
func (r *FindingRepository) Reconcile(ctx context.Context, repositoryID, scanID int64, candidates []*finding.Finding) ([]*finding.Finding, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	var result []*finding.Finding
	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		existing, err := r.findingsForRepositoryTx(ctx, tx, repositoryID)
		if err != nil {
			return err
		}

		rec := finding.Reconcile(existing, candidates)

		for _, f := range rec.Fresh {
			f.RepositoryID = repositoryID
			err := tx.QueryRowContext(ctx, `
				INSERT INTO finding (
					repository_id, rule_name, file_path, line_number, column_start, column_end,
					commit_id, commit_message, commit_timestamp, author, email, comment
				)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
				RETURNING id
			`,
				f.RepositoryID,
				f.RuleName,
				f.FilePath,
				f.LineNumber,
				f.ColumnStart,
				f.ColumnEnd,
				f.CommitID,
				nullString(f.CommitMessage),
				f.CommitTimestamp,
				nullString(f.Author),
				nullString(f.Email),
				nullString(f.Comment),
			).Scan(&f.ID)

			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: finding identity already exists", shared.ErrConflict)
				}
				return fmt.Errorf("failed to insert finding: %w", err)
			}
		}

		result = append(rec.Reused, rec.Fresh...)

		for _, f := range result {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO scan_finding (scan_id, finding_id)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, scanID, f.ID)
			if err != nil {
				return fmt.Errorf("failed to associate finding with scan: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// CountByStatus computes the per-status breakdown of the distinct findings
// in the given scans.
func (r *FindingRepository) CountByStatus(ctx context.Context, scanIDs []int64) (finding.StatusAggregate, error) {
	var agg finding.StatusAggregate
	if len(scanIDs) == 0 {
		return agg, nil
	}

	placeholders, args := int64Placeholders(scanIDs, 1)
	query := fmt.Sprintf(`
		SELECT COALESCE(la.status, 'NOT_ANALYZED') AS status, COUNT(*)
		FROM finding f
		%s
		WHERE f.id IN (SELECT DISTINCT finding_id FROM scan_finding WHERE scan_id IN (%s))
		GROUP BY COALESCE(la.status, 'NOT_ANALYZED')
	`, latestAuditJoin, placeholders)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return agg, fmt.Errorf("failed to count findings by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return agg, fmt.Errorf("failed to scan status count: %w", err)
		}
		agg.Add(finding.Status(status), count)
	}

	if err := rows.Err(); err != nil {
		return agg, fmt.Errorf("failed to iterate status counts: %w", err)
	}

	return agg, nil
}

// CountByStatusPerRule computes the breakdown grouped by rule name.
func (r *FindingRepository) CountByStatusPerRule(ctx context.Context, scanIDs []int64) ([]finding.RuleAggregate, error) {
	if len(scanIDs) == 0 {
		return nil, nil
	}

	placeholders, args := int64Placeholders(scanIDs, 1)
	query := fmt.Sprintf(`
		SELECT f.rule_name, COALESCE(la.status, 'NOT_ANALYZED') AS status, COUNT(*)
		FROM finding f
		%s
		WHERE f.id IN (SELECT DISTINCT finding_id FROM scan_finding WHERE scan_id IN (%s))
		GROUP BY f.rule_name, COALESCE(la.status, 'NOT_ANALYZED')
		ORDER BY f.rule_name
	`, latestAuditJoin, placeholders)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count findings by rule: %w", err)
	}
	defer rows.Close()

	var (
		aggregates []finding.RuleAggregate
		current    *finding.RuleAggregate
	)
	for rows.Next() {
		var (
			ruleName string
			status   string
			count    int
		)
		if err := rows.Scan(&ruleName, &status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan rule count: %w", err)
		}

		if current == nil || current.RuleName != ruleName {
			aggregates = append(aggregates, finding.RuleAggregate{RuleName: ruleName})
			current = &aggregates[len(aggregates)-1]
		}
		current.Counts.Add(finding.Status(status), count)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rule counts: %w", err)
	}

	return aggregates, nil
}

// CurrentStatus resolves one finding's current status from its latest audit.
func (r *FindingRepository) CurrentStatus(ctx context.Context, findingID int64) (finding.Status, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM finding WHERE id = $1)`, findingID).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("failed to check finding existence: %w", err)
	}
	if !exists {
		return "", fmt.Errorf("%w: finding %d", shared.ErrNotFound, findingID)
	}

	var status string
	err = r.db.QueryRowContext(ctx, `
		SELECT status FROM audit WHERE finding_id = $1 ORDER BY id DESC LIMIT 1
	`, findingID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return finding.StatusNotAnalyzed, nil
		}
		return "", fmt.Errorf("failed to resolve finding status: %w", err)
	}

	return finding.Status(status), nil
}

// DetectedRules returns the distinct rule names seen in the given scans.
func (r *FindingRepository) DetectedRules(ctx context.Context, scanIDs []int64) ([]string, error) {
	if len(scanIDs) == 0 {
		return nil, nil
	}

	placeholders, args := int64Placeholders(scanIDs, 1)
	query := fmt.Sprintf(`
		SELECT DISTINCT f.rule_name
		FROM finding f
		JOIN scan_finding sf ON sf.finding_id = f.id
		WHERE sf.scan_id IN (%s)
		ORDER BY f.rule_name
	`, placeholders)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query detected rules: %w", err)
	}
	defer rows.Close()

	var rules []string
	for rows.Next() {
		var rule string
		if err := rows.Scan(&rule); err != nil {
			return nil, fmt.Errorf("failed to scan rule name: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate detected rules: %w", err)
	}

	return rules, nil
}

// Helper methods

func (r *FindingRepository) findingsForRepositoryTx(ctx context.Context, tx *sql.Tx, repositoryID int64) ([]*finding.Finding, error) {
	rows, err := tx.QueryContext(ctx, findingSelectQuery+" WHERE f.repository_id = $1", repositoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query repository findings: %w", err)
	}
	defer rows.Close()

	return r.collectFindings(rows)
}

func (r *FindingRepository) collectFindings(rows *sql.Rows) ([]*finding.Finding, error) {
	var findings []*finding.Finding
	for rows.Next() {
		f, err := r.scanFinding(rows.Scan)
		if err != nil {
			return nil, err
		}
		findings = append(findings, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate findings: %w", err)
	}

	return findings, nil
}

func (r *FindingRepository) buildWhereClause(filter finding.Filter) (string, []any) {
	var conditions []string
	var args []any
	argIndex := 1

	if len(filter.VCSProviderTypes) > 0 {
		placeholders := make([]string, len(filter.VCSProviderTypes))
		for i, p := range filter.VCSProviderTypes {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, p.String())
			argIndex++
		}
		conditions = append(conditions, fmt.Sprintf(`f.repository_id IN (
			SELECT r.id FROM repository r
			JOIN vcs_instance v ON v.id = r.vcs_instance_id
			WHERE v.provider_type IN (%s))`, strings.Join(placeholders, ", ")))
	}

	if filter.ProjectKey != "" {
		conditions = append(conditions, fmt.Sprintf(
			"f.repository_id IN (SELECT id FROM repository WHERE project_key = $%d)", argIndex))
		args = append(args, filter.ProjectKey)
		argIndex++
	}

	if filter.RepositoryName != "" {
		conditions = append(conditions, fmt.Sprintf(
			"f.repository_id IN (SELECT id FROM repository WHERE repository_name ILIKE $%d)", argIndex))
		args = append(args, wrapLikePattern(filter.RepositoryName))
		argIndex++
	}

	if filter.BranchName != "" {
		conditions = append(conditions, fmt.Sprintf(`f.id IN (
			SELECT sf.finding_id FROM scan_finding sf
			JOIN scan s ON s.id = sf.scan_id
			JOIN branch b ON b.id = s.branch_id
			WHERE b.branch_name = $%d)`, argIndex))
		args = append(args, filter.BranchName)
		argIndex++
	}

	if len(filter.ScanIDs) > 0 {
		placeholders, scanArgs := int64Placeholders(filter.ScanIDs, argIndex)
		args = append(args, scanArgs...)
		argIndex += len(filter.ScanIDs)
		conditions = append(conditions, fmt.Sprintf(
			"f.id IN (SELECT finding_id FROM scan_finding WHERE scan_id IN (%s))", placeholders))
	}

	if len(filter.RuleNames) > 0 {
		placeholders := make([]string, len(filter.RuleNames))
		for i, rule := range filter.RuleNames {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, rule)
			argIndex++
		}
		conditions = append(conditions, fmt.Sprintf("f.rule_name IN (%s)", strings.Join(placeholders, ", ")))
	}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			args = append(args, status.String())
			argIndex++
		}
		conditions = append(conditions, fmt.Sprintf(
			"COALESCE(la.status, 'NOT_ANALYZED') IN (%s)", strings.Join(placeholders, ", ")))
	}

	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("f.commit_timestamp >= $%d", argIndex))
		args = append(args, *filter.StartDate)
		argIndex++
	}

	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("f.commit_timestamp <= $%d", argIndex))
		args = append(args, *filter.EndDate)
		argIndex++
	}

	return strings.Join(conditions, " AND "), args
}

func (r *FindingRepository) scanFinding(scan func(dest ...any) error) (*finding.Finding, error) {
	var (
		f             finding.Finding
		commitMessage sql.NullString
		author        sql.NullString
		email         sql.NullString
		comment       sql.NullString
		eventSentOn   sql.NullTime
	)

	err := scan(
		&f.ID,
		&f.RepositoryID,
		&f.RuleName,
		&f.FilePath,
		&f.LineNumber,
		&f.ColumnStart,
		&f.ColumnEnd,
		&f.CommitID,
		&commitMessage,
		&f.CommitTimestamp,
		&author,
		&email,
		&comment,
		&eventSentOn,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: finding", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan finding: %w", err)
	}

	f.CommitMessage = nullStringValue(commitMessage)
	f.Author = nullStringValue(author)
	f.Email = nullStringValue(email)
	f.Comment = nullStringValue(comment)
	f.EventSentOn = nullTimeValue(eventSentOn)
	return &f, nil
}

// int64Placeholders builds a $n placeholder list for the given ids starting
// at startIndex, returning the joined placeholders and the argument slice.
func int64Placeholders(ids []int64, startIndex int) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", startIndex+i)
		args[i] = id
	}
	return strings.Join(placeholders, ", "), args
}
