package schedule_test

import (
	"reflect"
	"testing"

	"fieldhouse/internal/domain/schedule"
)

func days(groups []schedule.DayGroup) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g.Day)
	}
	return out
}

// TestGroupByDay_DefaultOrder tests that days follow the club's display order
// and that days without sessions are not emitted.
func TestGroupByDay_DefaultOrder(t *testing.T) {
	in := []schedule.Schedule{
		{ID: "mon", Day: schedule.Monday, StartTime: "17:00"},
		{ID: "tue", Day: schedule.Tuesday, StartTime: "17:00"},
		{ID: "sun", Day: schedule.Sunday, StartTime: "10:00"},
		{ID: "fri", Day: schedule.Friday, StartTime: "16:00"},
	}
	got := schedule.GroupByDay(in, schedule.DefaultDayOrder())
	want := []string{schedule.Tuesday, schedule.Sunday, schedule.Monday, schedule.Friday}
	if !reflect.DeepEqual(days(got), want) {
		t.Errorf("GroupByDay order = %v, want %v", days(got), want)
	}
}

// TestGroupByDay_SortsWithinDayAndUsesDate tests start-time ordering and
// date-derived weekdays for dated specials.
func TestGroupByDay_SortsWithinDayAndUsesDate(t *testing.T) {
	in := []schedule.Schedule{
		{ID: "late", Day: schedule.Thursday, StartTime: "18:00"},
		{ID: "early", Day: schedule.Thursday, StartTime: "06:30"},
		// 2026-10-22 is a Thursday; the stale Day field is ignored.
		{ID: "combine", Day: schedule.Monday, Date: "2026-10-22", StartTime: "12:00"},
	}
	got := schedule.GroupByDay(in, schedule.DefaultDayOrder())
	if len(got) != 1 || got[0].Day != schedule.Thursday {
		t.Fatalf("expected a single thursday group, got %v", days(got))
	}
	var ids []string
	for _, s := range got[0].Schedules {
		ids = append(ids, s.ID)
	}
	if !reflect.DeepEqual(ids, []string{"early", "combine", "late"}) {
		t.Errorf("thursday sessions = %v", ids)
	}
}

// TestGroupByDay_PartialOverride tests that days left out of an override
// still appear, after the listed days, in calendar order.
func TestGroupByDay_PartialOverride(t *testing.T) {
	order, err := schedule.ParseDayOrder("sat,sun")
	if err != nil {
		t.Fatalf("ParseDayOrder: %v", err)
	}
	in := []schedule.Schedule{
		{ID: "wed", Day: schedule.Wednesday},
		{ID: "sun", Day: schedule.Sunday},
		{ID: "mon", Day: schedule.Monday},
		{ID: "sat", Day: schedule.Saturday},
	}
	got := days(schedule.GroupByDay(in, order))
	want := []string{schedule.Saturday, schedule.Sunday, schedule.Monday, schedule.Wednesday}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GroupByDay = %v, want %v", got, want)
	}
}

// TestGroupByDay_Empty tests that no schedules yields no groups.
func TestGroupByDay_Empty(t *testing.T) {
	if got := schedule.GroupByDay(nil, schedule.DefaultDayOrder()); len(got) != 0 {
		t.Errorf("expected no groups, got %v", days(got))
	}
}

// TestParseDayOrder tests parsing of the configured override.
func TestParseDayOrder(t *testing.T) {
	tests := []struct {
		in      string
		want    schedule.DayOrder
		wantErr bool
	}{
		{"tue,thu,sun,mon,wed,fri,sat", schedule.DefaultDayOrder(), false},
		{"Monday, tuesday", schedule.DayOrder{schedule.Monday, schedule.Tuesday}, false},
		{"mon,mon", nil, true},
		{"mon,funday", nil, true},
		{" , ", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := schedule.ParseDayOrder(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDayOrder(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseDayOrder(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// TestNormalizeDay tests abbreviation expansion.
func TestNormalizeDay(t *testing.T) {
	tests := map[string]string{
		"Tue":      schedule.Tuesday,
		" sunday ": schedule.Sunday,
		"someday":  "someday",
	}
	for in, want := range tests {
		if got := schedule.NormalizeDay(in); got != want {
			t.Errorf("NormalizeDay(%q) = %q, want %q", in, got, want)
		}
	}
}
