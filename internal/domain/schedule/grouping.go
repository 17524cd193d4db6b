package schedule

import (
	"fmt"
	"sort"
	"strings"
)

// DayOrder is the display order of weekdays in the weekly view.
type DayOrder []string

// DefaultDayOrder returns the club's display order: the main training
// nights first, then the remaining days in calendar order.
func DefaultDayOrder() DayOrder {
	return DayOrder{Tuesday, Thursday, Sunday, Monday, Wednesday, Friday, Saturday}
}

// ParseDayOrder parses a comma-separated override such as "tue,thu,sun".
// Three-letter abbreviations and full names are accepted.
func ParseDayOrder(s string) (DayOrder, error) {
	var order DayOrder
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		day := expandDay(part)
		if day == "" {
			return nil, fmt.Errorf("unknown day %q", part)
		}
		if seen[day] {
			return nil, fmt.Errorf("day %q listed twice", day)
		}
		seen[day] = true
		order = append(order, day)
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("day order is empty")
	}
	return order, nil
}

func expandDay(s string) string {
	for _, d := range ValidDays {
		if s == d || s == d[:3] {
			return d
		}
	}
	return ""
}

// DayGroup is one day of the weekly view.
type DayGroup struct {
	Day       string
	Schedules []Schedule
}

// GroupByDay buckets schedules by effective weekday, emitting days in
// order and skipping empty ones. Days missing from order follow at the
// end in calendar order. Within a day sessions are sorted by start time.
func GroupByDay(schedules []Schedule, order DayOrder) []DayGroup {
	buckets := make(map[string][]Schedule)
	for _, s := range schedules {
		day := s.EffectiveDay()
		buckets[day] = append(buckets[day], s)
	}

	visit := make([]string, 0, len(ValidDays))
	listed := make(map[string]bool)
	for _, d := range order {
		if !listed[d] {
			listed[d] = true
			visit = append(visit, d)
		}
	}
	for _, d := range ValidDays {
		if !listed[d] {
			visit = append(visit, d)
		}
	}

	var groups []DayGroup
	for _, day := range visit {
		items, ok := buckets[day]
		if !ok {
			continue
		}
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].StartTime < items[j].StartTime
		})
		groups = append(groups, DayGroup{Day: day, Schedules: items})
	}
	return groups
}

// NormalizeDay lowercases s and expands a three-letter abbreviation.
// Unknown input is returned lowercased for Validate to reject.
func NormalizeDay(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if d := expandDay(s); d != "" {
		return d
	}
	return s
}
