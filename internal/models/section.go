package models

import (
	"fmt"
	"time"
)

// SectionKey identifies a catalog section within a term. Section codes
// are unique per term only, so the term is part of the key.
type SectionKey struct {
	Code int    `json:"code"`
	Term string `json:"term"`
}

// MeetingPattern is one weekly meeting of a section as scraped from the
// registrar: a run of day abbreviations, a time range and a location.
// Days and Times keep the raw scraped text; parsing happens at
// materialization time so a malformed pattern degrades to a skipped
// meeting instead of a rejected row.
type MeetingPattern struct {
	ID        string `db:"id" json:"-"`
	SectionID string `db:"section_id" json:"-"`
	Days      string `db:"days" json:"days"`
	Times     string `db:"times" json:"times"`
	Location  string `db:"location" json:"location"`
	Ordinal   int    `db:"ordinal" json:"-"`
}

// SectionInfo is the catalog's descriptive record for a section.
type SectionInfo struct {
	ID         string           `db:"id" json:"id"`
	Code       int              `db:"code" json:"code"`
	Term       string           `db:"term" json:"term"`
	Subject    string           `db:"subject" json:"subject"`
	Number     string           `db:"number" json:"number"`
	Title      string           `db:"title" json:"title"`
	Component  string           `db:"component" json:"component"`
	Units      float64          `db:"units" json:"units"`
	Instructor string           `db:"instructor" json:"instructor"`
	Meetings   []MeetingPattern `db:"-" json:"meetings"`
	CreatedAt  time.Time        `db:"created_at" json:"-"`
	UpdatedAt  time.Time        `db:"updated_at" json:"-"`
}

// Key returns the (code, term) identity of the section.
func (s SectionInfo) Key() SectionKey {
	return SectionKey{Code: s.Code, Term: s.Term}
}

// DisplayName renders the short course label, e.g. "CSE 101".
func (s SectionInfo) DisplayName() string {
	if s.Subject == "" && s.Number == "" {
		return s.Title
	}
	return fmt.Sprintf("%s %s", s.Subject, s.Number)
}

// CourseFilter narrows catalog search listings.
type CourseFilter struct {
	Term      string
	Subject   string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
