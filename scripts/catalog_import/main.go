// Command catalog_import loads a course catalog dump (JSON) into the
// database: term calendars, sections, and their meeting patterns. Meeting
// day and time strings are stored verbatim; parsing happens at render time.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/campusplan/planner-api/internal/models"
	"github.com/campusplan/planner-api/internal/repository"
	"github.com/campusplan/planner-api/pkg/config"
	"github.com/campusplan/planner-api/pkg/database"
)

type termDump struct {
	Term              string `json:"term"`
	InstructionBegins string `json:"instruction_begins"`
	InstructionEnds   string `json:"instruction_ends"`
	FinalsBegin       string `json:"finals_begin"`
	FinalsEnd         string `json:"finals_end"`
}

type meetingDump struct {
	Days     string `json:"days"`
	Times    string `json:"times"`
	Location string `json:"location"`
}

type sectionDump struct {
	Code       int           `json:"code"`
	Term       string        `json:"term"`
	Subject    string        `json:"subject"`
	Number     string        `json:"number"`
	Title      string        `json:"title"`
	Component  string        `json:"component"`
	Units      float64       `json:"units"`
	Instructor string        `json:"instructor"`
	Meetings   []meetingDump `json:"meetings"`
}

type catalogDump struct {
	Terms    []termDump    `json:"terms"`
	Sections []sectionDump `json:"sections"`
}

func main() {
	var (
		dumpPath string
		timeout  time.Duration
	)
	flag.StringVar(&dumpPath, "dump", "catalog.json", "Path to catalog dump JSON")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Overall import timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	dump, err := loadDump(dumpPath)
	if err != nil {
		log.Fatalf("failed to load dump: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	termRepo := repository.NewTermRepository(db)
	sectionRepo := repository.NewSectionRepository(db)

	for _, t := range dump.Terms {
		tc, err := buildTerm(t)
		if err != nil {
			log.Fatalf("term %s: %v", t.Term, err)
		}
		if err := termRepo.Upsert(ctx, tc); err != nil {
			log.Fatalf("upsert term %s: %v", t.Term, err)
		}
	}

	imported := 0
	for _, s := range dump.Sections {
		section := buildSection(s)
		if err := sectionRepo.Upsert(ctx, section); err != nil {
			log.Fatalf("upsert section %d (%s): %v", s.Code, s.Term, err)
		}
		imported++
	}

	fmt.Printf("imported %d terms, %d sections\n", len(dump.Terms), imported)
}

func loadDump(path string) (*catalogDump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var dump catalogDump
	if err := json.NewDecoder(f).Decode(&dump); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &dump, nil
}

func buildTerm(t termDump) (*models.TermCalendar, error) {
	tc := &models.TermCalendar{Term: t.Term}
	var err error
	if tc.InstructionBegins, err = parseDate(t.InstructionBegins); err != nil {
		return nil, fmt.Errorf("instruction_begins: %w", err)
	}
	if tc.InstructionEnds, err = parseDate(t.InstructionEnds); err != nil {
		return nil, fmt.Errorf("instruction_ends: %w", err)
	}
	if tc.FinalsBegin, err = parseDate(t.FinalsBegin); err != nil {
		return nil, fmt.Errorf("finals_begin: %w", err)
	}
	if tc.FinalsEnd, err = parseDate(t.FinalsEnd); err != nil {
		return nil, fmt.Errorf("finals_end: %w", err)
	}
	return tc, nil
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}

func buildSection(s sectionDump) *models.SectionInfo {
	info := &models.SectionInfo{
		Code:       s.Code,
		Term:       s.Term,
		Subject:    s.Subject,
		Number:     s.Number,
		Title:      s.Title,
		Component:  s.Component,
		Units:      s.Units,
		Instructor: s.Instructor,
	}
	for i, m := range s.Meetings {
		info.Meetings = append(info.Meetings, models.MeetingPattern{
			Days:     m.Days,
			Times:    m.Times,
			Location: m.Location,
			Ordinal:  i,
		})
	}
	return info
}
