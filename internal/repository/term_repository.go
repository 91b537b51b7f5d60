package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campusplan/planner-api/internal/models"
)

// TermRepository reads and writes term calendars. The planner only
// reads them; writes come from the offline catalog import.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository instantiates a term repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// List returns all known term calendars ordered by instruction start.
func (r *TermRepository) List(ctx context.Context) ([]models.TermCalendar, error) {
	const query = `SELECT term, instruction_begins, instruction_ends, finals_begin, finals_end, created_at, updated_at
FROM term_calendars ORDER BY instruction_begins ASC`
	var terms []models.TermCalendar
	if err := r.db.SelectContext(ctx, &terms, query); err != nil {
		return nil, fmt.Errorf("list term calendars: %w", err)
	}
	return terms, nil
}

// GetByTerm fetches one term calendar.
func (r *TermRepository) GetByTerm(ctx context.Context, term string) (*models.TermCalendar, error) {
	const query = `SELECT term, instruction_begins, instruction_ends, finals_begin, finals_end, created_at, updated_at
FROM term_calendars WHERE term = $1`
	var tc models.TermCalendar
	if err := r.db.GetContext(ctx, &tc, query, term); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get term calendar: %w", err)
	}
	return &tc, nil
}

// Upsert writes a term calendar row, used by the catalog import.
func (r *TermRepository) Upsert(ctx context.Context, tc *models.TermCalendar) error {
	now := time.Now().UTC()
	tc.UpdatedAt = now
	if tc.CreatedAt.IsZero() {
		tc.CreatedAt = now
	}
	const query = `INSERT INTO term_calendars (term, instruction_begins, instruction_ends, finals_begin, finals_end, created_at, updated_at)
VALUES (:term, :instruction_begins, :instruction_ends, :finals_begin, :finals_end, :created_at, :updated_at)
ON CONFLICT (term) DO UPDATE SET instruction_begins = EXCLUDED.instruction_begins, instruction_ends = EXCLUDED.instruction_ends,
finals_begin = EXCLUDED.finals_begin, finals_end = EXCLUDED.finals_end, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, tc); err != nil {
		return fmt.Errorf("upsert term calendar: %w", err)
	}
	return nil
}
