package orchestrators

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"fieldhouse/internal/domain/schedule"
)

// Catalog is the seed file layout.
type Catalog struct {
	Programs  []CatalogProgram  `yaml:"programs"`
	Schedules []CatalogSchedule `yaml:"schedules"`
}

// CatalogProgram is one program entry. Omit max_enrollees for unlimited.
type CatalogProgram struct {
	Name         string `yaml:"name"`
	MaxEnrollees *int   `yaml:"max_enrollees"`
}

// CatalogSchedule is one session definition entry.
type CatalogSchedule struct {
	Title           string `yaml:"title"`
	Description     string `yaml:"description"`
	Day             string `yaml:"day"`
	Date            string `yaml:"date"`
	Start           string `yaml:"start"`
	End             string `yaml:"end"`
	Location        string `yaml:"location"`
	Type            string `yaml:"type"`
	MaxParticipants *int   `yaml:"max_participants"`
}

// ParseCatalog decodes a seed file. Unknown keys are rejected so typos surface.
func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	return c, nil
}

// SeedCatalogDeps holds dependencies for SeedCatalog.
type SeedCatalogDeps struct {
	ProgramStore  ProgramStore
	ScheduleStore ScheduleStore
	GenerateID    IDFunc
}

// SeedCatalogResult counts what a seed run created.
type SeedCatalogResult struct {
	Programs  int
	Schedules int
	Skipped   int
}

// ExecuteSeedCatalog creates the catalog's programs and sessions. Entries that
// already exist are skipped, so running the same file twice is a no-op.
// PRE: Catalog was parsed by ParseCatalog
// POST: Every valid entry exists exactly once
func ExecuteSeedCatalog(ctx context.Context, c Catalog, deps SeedCatalogDeps) (SeedCatalogResult, error) {
	var res SeedCatalogResult

	programs, err := deps.ProgramStore.List(ctx, true)
	if err != nil {
		return res, err
	}
	haveProgram := make(map[string]bool, len(programs))
	for _, p := range programs {
		haveProgram[strings.ToLower(p.Name)] = true
	}
	for _, cp := range c.Programs {
		if haveProgram[strings.ToLower(strings.TrimSpace(cp.Name))] {
			res.Skipped++
			continue
		}
		p, err := ExecuteCreateProgram(ctx, CreateProgramInput{Name: cp.Name, MaxEnrollees: cp.MaxEnrollees},
			ProgramDeps{ProgramStore: deps.ProgramStore, GenerateID: deps.GenerateID})
		if err != nil {
			return res, fmt.Errorf("program %q: %w", cp.Name, err)
		}
		haveProgram[strings.ToLower(p.Name)] = true
		res.Programs++
	}

	existing, err := deps.ScheduleStore.List(ctx)
	if err != nil {
		return res, err
	}
	haveSchedule := make(map[string]bool, len(existing))
	for _, s := range existing {
		haveSchedule[scheduleKey(s.Title, s.EffectiveDay(), s.Date, s.StartTime)] = true
	}
	scheduleDeps := ScheduleDeps{ScheduleStore: deps.ScheduleStore, GenerateID: deps.GenerateID}
	for _, cs := range c.Schedules {
		in := AddScheduleInput{
			Title:           cs.Title,
			Description:     cs.Description,
			Day:             cs.Day,
			Date:            cs.Date,
			StartTime:       cs.Start,
			EndTime:         cs.End,
			Location:        cs.Location,
			SessionType:     schedule.SessionType(cs.Type),
			MaxParticipants: cs.MaxParticipants,
		}
		probe := schedule.Schedule{Day: schedule.NormalizeDay(cs.Day), Date: strings.TrimSpace(cs.Date)}
		key := scheduleKey(strings.TrimSpace(cs.Title), probe.EffectiveDay(), probe.Date, strings.TrimSpace(cs.Start))
		if haveSchedule[key] {
			res.Skipped++
			continue
		}
		if _, err := ExecuteAddSchedule(ctx, in, scheduleDeps); err != nil {
			return res, fmt.Errorf("schedule %q: %w", cs.Title, err)
		}
		haveSchedule[key] = true
		res.Schedules++
	}

	slog.Info("seed_event", "event", "catalog_seeded", "programs", res.Programs, "schedules", res.Schedules, "skipped", res.Skipped)
	return res, nil
}

func scheduleKey(title, day, date, start string) string {
	return strings.ToLower(title) + "|" + day + "|" + date + "|" + start
}
