package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abnamro/repository-scanner/pkg/domain/audit"
	"github.com/abnamro/repository-scanner/pkg/domain/finding"
	"github.com/abnamro/repository-scanner/pkg/domain/shared"
	"github.com/abnamro/repository-scanner/pkg/pagination"
)

// AuditRepository implements audit.Repository using PostgreSQL.
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

const auditSelectQuery = `
	SELECT id, finding_id, status, auditor, comment, timestamp
	FROM audit
`

// Create persists a new audit.
func (r *AuditRepository) Create(ctx context.Context, a *audit.Audit) error {
	query := `
		INSERT INTO audit (finding_id, status, auditor, comment, timestamp)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		a.FindingID,
		a.Status.String(),
		a.Auditor,
		nullString(a.Comment),
		a.Timestamp,
	).Scan(&a.ID)

	if err != nil {
		return fmt.Errorf("failed to create audit: %w", err)
	}

	return nil
}

// CreateBatch persists audits for multiple findings in one transaction.
func (r *AuditRepository) CreateBatch(ctx context.Context, audits []*audit.Audit) error {
	if len(audits) == 0 {
		return nil
	}

	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO audit (finding_id, status, auditor, comment, timestamp)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare audit insert: %w", err)
		}
		defer stmt.Close()

		for _, a := range audits {
			err := stmt.QueryRowContext(ctx,
				a.FindingID,
				a.Status.String(),
				a.Auditor,
				nullString(a.Comment),
				a.Timestamp,
			).Scan(&a.ID)
			if err != nil {
				return fmt.Errorf("failed to insert audit for finding %d: %w", a.FindingID, err)
			}
		}

		return nil
	})
}

// ListByFinding returns a finding's audits, newest first.
func (r *AuditRepository) ListByFinding(ctx context.Context, findingID int64, page pagination.Pagination) (pagination.Result[*audit.Audit], error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit WHERE finding_id = $1`, findingID).Scan(&total)
	if err != nil {
		return pagination.Result[*audit.Audit]{}, fmt.Errorf("failed to count audits: %w", err)
	}

	query := auditSelectQuery + fmt.Sprintf(" WHERE finding_id = $1 ORDER BY id DESC LIMIT %d OFFSET %d", page.Limit, page.Offset())
	rows, err := r.db.QueryContext(ctx, query, findingID)
	if err != nil {
		return pagination.Result[*audit.Audit]{}, fmt.Errorf("failed to query audits: %w", err)
	}
	defer rows.Close()

	var audits []*audit.Audit
	for rows.Next() {
		a, err := r.scanAudit(rows.Scan)
		if err != nil {
			return pagination.Result[*audit.Audit]{}, err
		}
		audits = append(audits, a)
	}

	if err := rows.Err(); err != nil {
		return pagination.Result[*audit.Audit]{}, fmt.Errorf("failed to iterate audits: %w", err)
	}

	return pagination.NewResult(audits, total, page), nil
}

// LatestForFinding returns the finding's most recent audit by id.
func (r *AuditRepository) LatestForFinding(ctx context.Context, findingID int64) (*audit.Audit, error) {
	row := r.db.QueryRowContext(ctx,
		auditSelectQuery+" WHERE finding_id = $1 ORDER BY id DESC LIMIT 1",
		findingID,
	)
	return r.scanAudit(row.Scan)
}

func (r *AuditRepository) scanAudit(scan func(dest ...any) error) (*audit.Audit, error) {
	var (
		a       audit.Audit
		status  string
		comment sql.NullString
	)

	err := scan(
		&a.ID,
		&a.FindingID,
		&status,
		&a.Auditor,
		&comment,
		&a.Timestamp,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: audit", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan audit: %w", err)
	}

	a.Status = finding.Status(status)
	a.Comment = nullStringValue(comment)
	return &a, nil
}
