package models

import "time"

// TermCalendar records a term's instructional date bounds. It is
// produced by the offline catalog import and read-only to the planner:
// course event occurrences are generated only between InstructionBegins
// and InstructionEnds.
type TermCalendar struct {
	Term              string    `db:"term" json:"term"`
	InstructionBegins time.Time `db:"instruction_begins" json:"instruction_begins"`
	InstructionEnds   time.Time `db:"instruction_ends" json:"instruction_ends"`
	FinalsBegin       time.Time `db:"finals_begin" json:"finals_begin"`
	FinalsEnd         time.Time `db:"finals_end" json:"finals_end"`
	CreatedAt         time.Time `db:"created_at" json:"-"`
	UpdatedAt         time.Time `db:"updated_at" json:"-"`
}
