package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/abnamro/repository-scanner/pkg/domain/scan"
	"github.com/abnamro/repository-scanner/pkg/domain/shared"
	"github.com/abnamro/repository-scanner/pkg/pagination"
)

// ScanRepository implements scan.Repository using PostgreSQL.
type ScanRepository struct {
	db *DB
}

// NewScanRepository creates a new ScanRepository.
func NewScanRepository(db *DB) *ScanRepository {
	return &ScanRepository{db: db}
}

const scanSelectQuery = `
	SELECT id, branch_id, scan_type, last_scanned_commit, timestamp, increment_number, rule_pack
	FROM scan
`

// Create persists a new scan. The branch row is locked for the duration of
// the transaction so that concurrent creations for the same branch serialize
// and cannot assign the same increment number.
func (r *ScanRepository) Create(ctx context.Context, s *scan.Scan, forceBase bool) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		var branchID int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM branch WHERE id = $1 FOR UPDATE`, s.BranchID).Scan(&branchID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: branch %d", shared.ErrNotFound, s.BranchID)
			}
			return fmt.Errorf("failed to lock branch: %w", err)
		}

		previous, err := r.latestForBranchTx(ctx, tx, s.BranchID)
		if err != nil && !shared.IsNotFound(err) {
			return err
		}

		plan := scan.PlanNext(previous, forceBase)
		s.ScanType = plan.ScanType
		s.IncrementNumber = plan.IncrementNumber

		err = tx.QueryRowContext(ctx, `
			INSERT INTO scan (branch_id, scan_type, last_scanned_commit, timestamp, increment_number, rule_pack)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`,
			s.BranchID,
			s.ScanType.String(),
			s.LastScannedCommit,
			s.Timestamp,
			s.IncrementNumber,
			s.RulePack,
		).Scan(&s.ID)

		if err != nil {
			return fmt.Errorf("failed to create scan: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a scan by ID.
func (r *ScanRepository) GetByID(ctx context.Context, id int64) (*scan.Scan, error) {
	row := r.db.QueryRowContext(ctx, scanSelectQuery+" WHERE id = $1", id)
	return r.scanScan(row.Scan)
}

// Update applies an administrative correction to a scan.
func (r *ScanRepository) Update(ctx context.Context, s *scan.Scan) error {
	query := `
		UPDATE scan SET
			scan_type = $2, last_scanned_commit = $3, timestamp = $4,
			increment_number = $5, rule_pack = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.ScanType.String(),
		s.LastScannedCommit,
		s.Timestamp,
		s.IncrementNumber,
		s.RulePack,
	)
	if err != nil {
		return fmt.Errorf("failed to update scan: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: scan %d", shared.ErrNotFound, s.ID)
	}

	return nil
}

// Delete removes a scan and its finding associations.
func (r *ScanRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM scan WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scan: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: scan %d", shared.ErrNotFound, id)
	}

	return nil
}

// List returns scans, newest first.
func (r *ScanRepository) List(ctx context.Context, page pagination.Pagination) (pagination.Result[*scan.Scan], error) {
	return r.list(ctx, "", nil, page)
}

// ListByBranch returns the scans of a branch, newest first.
func (r *ScanRepository) ListByBranch(ctx context.Context, branchID int64, page pagination.Pagination) (pagination.Result[*scan.Scan], error) {
	return r.list(ctx, " WHERE branch_id = $1", []any{branchID}, page)
}

func (r *ScanRepository) list(ctx context.Context, where string, args []any, page pagination.Pagination) (pagination.Result[*scan.Scan], error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scan`+where, args...).Scan(&total); err != nil {
		return pagination.Result[*scan.Scan]{}, fmt.Errorf("failed to count scans: %w", err)
	}

	query := scanSelectQuery + where + fmt.Sprintf(" ORDER BY timestamp DESC LIMIT %d OFFSET %d", page.Limit, page.Offset())
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return pagination.Result[*scan.Scan]{}, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var scans []*scan.Scan
	for rows.Next() {
		s, err := r.scanScan(rows.Scan)
		if err != nil {
			return pagination.Result[*scan.Scan]{}, err
		}
		scans = append(scans, s)
	}

	if err := rows.Err(); err != nil {
		return pagination.Result[*scan.Scan]{}, fmt.Errorf("failed to iterate scans: %w", err)
	}

	return pagination.NewResult(scans, total, page), nil
}

// LatestForBranch returns the branch's most recent scan by timestamp.
func (r *ScanRepository) LatestForBranch(ctx context.Context, branchID int64) (*scan.Scan, error) {
	row := r.db.QueryRowContext(ctx,
		scanSelectQuery+" WHERE branch_id = $1 ORDER BY timestamp DESC LIMIT 1",
		branchID,
	)
	return r.scanScan(row.Scan)
}

// ChainLinks streams the branch's scans with timestamp at or before
// reference, ordered by timestamp descending. Rows stop being fetched as
// soon as a base scan is seen, so a long incremental history never loads
// past its bounding base scan.
func (r *ScanRepository) ChainLinks(ctx context.Context, branchID int64, reference time.Time) ([]scan.ChainLink, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, scan_type
		FROM scan
		WHERE branch_id = $1 AND timestamp <= $2
		ORDER BY timestamp DESC
	`, branchID, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan chain: %w", err)
	}
	defer rows.Close()

	var links []scan.ChainLink
	for rows.Next() {
		var (
			link     scan.ChainLink
			scanType string
		)
		if err := rows.Scan(&link.ID, &scanType); err != nil {
			return nil, fmt.Errorf("failed to scan chain link: %w", err)
		}
		link.ScanType = scan.Type(scanType)
		links = append(links, link)

		if link.ScanType == scan.TypeBase {
			break
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scan chain: %w", err)
	}

	return links, nil
}

func (r *ScanRepository) latestForBranchTx(ctx context.Context, tx *sql.Tx, branchID int64) (*scan.Scan, error) {
	row := tx.QueryRowContext(ctx,
		scanSelectQuery+" WHERE branch_id = $1 ORDER BY timestamp DESC LIMIT 1",
		branchID,
	)
	return r.scanScan(row.Scan)
}

func (r *ScanRepository) scanScan(scanRow func(dest ...any) error) (*scan.Scan, error) {
	var (
		s        scan.Scan
		scanType string
	)

	err := scanRow(
		&s.ID,
		&s.BranchID,
		&scanType,
		&s.LastScannedCommit,
		&s.Timestamp,
		&s.IncrementNumber,
		&s.RulePack,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: scan", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan scan row: %w", err)
	}

	s.ScanType = scan.Type(scanType)
	return &s, nil
}
