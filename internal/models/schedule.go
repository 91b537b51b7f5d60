package models

import "time"

// ScheduleView enumerates calendar view granularities. Display
// preference only; it never affects materialization.
type ScheduleView string

const (
	ScheduleViewDay   ScheduleView = "DAY"
	ScheduleViewWeek  ScheduleView = "WEEK"
	ScheduleViewMonth ScheduleView = "MONTH"
)

// Schedule is a named container of calendar events owned by one user.
type Schedule struct {
	ID           string       `db:"id" json:"id"`
	UserID       string       `db:"user_id" json:"user_id"`
	Name         string       `db:"name" json:"name"`
	View         ScheduleView `db:"view" json:"view"`
	ShowWeekends bool         `db:"show_weekends" json:"show_weekends"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// ScheduleFilter describes query params for listing schedules.
type ScheduleFilter struct {
	UserID    string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
