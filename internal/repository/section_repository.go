package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campusplan/planner-api/internal/models"
)

// SectionRepository reads the scraped course catalog.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs a section repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// ResolveSections looks up catalog info for the given (code, term)
// keys. Sections removed from the registrar since they were added to a
// schedule are simply absent from the result.
func (r *SectionRepository) ResolveSections(ctx context.Context, keys []models.SectionKey) ([]models.SectionInfo, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	codes := make([]int64, 0, len(keys))
	terms := make([]string, 0, len(keys))
	for _, k := range keys {
		codes = append(codes, int64(k.Code))
		terms = append(terms, k.Term)
	}

	const query = `SELECT id, code, term, subject, number, title, component, units, instructor, created_at, updated_at
FROM sections WHERE (code, term) IN (SELECT UNNEST($1::bigint[]), UNNEST($2::text[]))`
	var sections []models.SectionInfo
	if err := r.db.SelectContext(ctx, &sections, query, pq.Array(codes), pq.Array(terms)); err != nil {
		return nil, fmt.Errorf("resolve sections: %w", err)
	}
	if err := r.attachMeetings(ctx, sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// Search lists catalog sections matching the filter with total count.
func (r *SectionRepository) Search(ctx context.Context, filter models.CourseFilter) ([]models.SectionInfo, int, error) {
	base := `FROM sections WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Term != "" {
		conditions = append(conditions, fmt.Sprintf("term = $%d", len(args)+1))
		args = append(args, filter.Term)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("subject = $%d", len(args)+1))
		args = append(args, strings.ToUpper(filter.Subject))
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(subject || ' ' || number) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"subject": true, "number": true, "title": true, "code": true}
	if !allowedSorts[sortBy] {
		sortBy = "subject"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 25
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, code, term, subject, number, title, component, units, instructor, created_at, updated_at
%s ORDER BY %s %s, number ASC LIMIT %d OFFSET %d`, base, sortBy, order, size, offset)
	var sections []models.SectionInfo
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, 0, fmt.Errorf("search sections: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sections: %w", err)
	}

	if err := r.attachMeetings(ctx, sections); err != nil {
		return nil, 0, err
	}
	return sections, total, nil
}

// Upsert writes a catalog section and replaces its meeting patterns,
// used by the catalog import.
func (r *SectionRepository) Upsert(ctx context.Context, section *models.SectionInfo) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert section: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO sections (id, code, term, subject, number, title, component, units, instructor, created_at, updated_at)
VALUES (:id, :code, :term, :subject, :number, :title, :component, :units, :instructor, NOW(), NOW())
ON CONFLICT (code, term) DO UPDATE SET subject = EXCLUDED.subject, number = EXCLUDED.number, title = EXCLUDED.title,
component = EXCLUDED.component, units = EXCLUDED.units, instructor = EXCLUDED.instructor, updated_at = NOW()
RETURNING id`
	rows, err := tx.NamedQuery(query, section)
	if err != nil {
		return fmt.Errorf("upsert section: %w", err)
	}
	if rows.Next() {
		if err := rows.Scan(&section.ID); err != nil {
			rows.Close()
			return fmt.Errorf("scan section id: %w", err)
		}
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx, "DELETE FROM meeting_patterns WHERE section_id = $1", section.ID); err != nil {
		return fmt.Errorf("clear meeting patterns: %w", err)
	}
	for i, meeting := range section.Meetings {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO meeting_patterns (section_id, ordinal, days, times, location) VALUES ($1, $2, $3, $4, $5)`,
			section.ID, i, meeting.Days, meeting.Times, meeting.Location); err != nil {
			return fmt.Errorf("insert meeting pattern: %w", err)
		}
	}

	return tx.Commit()
}

func (r *SectionRepository) attachMeetings(ctx context.Context, sections []models.SectionInfo) error {
	if len(sections) == 0 {
		return nil
	}
	ids := make([]string, len(sections))
	index := make(map[string]int, len(sections))
	for i, s := range sections {
		ids[i] = s.ID
		index[s.ID] = i
	}

	const query = `SELECT id, section_id, ordinal, days, times, location FROM meeting_patterns
WHERE section_id = ANY($1) ORDER BY section_id, ordinal ASC`
	var meetings []models.MeetingPattern
	if err := r.db.SelectContext(ctx, &meetings, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("list meeting patterns: %w", err)
	}
	for _, m := range meetings {
		i := index[m.SectionID]
		sections[i].Meetings = append(sections[i].Meetings, m)
	}
	return nil
}
