package schedule_test

import (
	"reflect"
	"testing"
	"time"

	"fieldhouse/internal/domain/schedule"
)

func intPtr(n int) *int { return &n }

func valid(mod func(*schedule.Schedule)) schedule.Schedule {
	s := schedule.Schedule{
		ID:          "1",
		Title:       "Speed Lab",
		Day:         schedule.Tuesday,
		StartTime:   "16:00",
		EndTime:     "17:00",
		Location:    "Field 2",
		SessionType: schedule.TypeRegular,
	}
	if mod != nil {
		mod(&s)
	}
	return s
}

// TestSchedule_Validate tests validation of Schedule.
func TestSchedule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		sched   schedule.Schedule
		wantErr error
	}{
		{"valid schedule", valid(nil), nil},
		{"valid open gym with limit", valid(func(s *schedule.Schedule) {
			s.SessionType = schedule.TypeOpenGym
			s.MaxParticipants = intPtr(12)
		}), nil},
		{"valid dated special without day", valid(func(s *schedule.Schedule) {
			s.Day = ""
			s.Date = "2026-10-24" // a Saturday
			s.SessionType = schedule.TypeSpecial
		}), nil},
		{"empty title", valid(func(s *schedule.Schedule) { s.Title = " " }), schedule.ErrEmptyTitle},
		{"invalid day", valid(func(s *schedule.Schedule) { s.Day = "funday" }), schedule.ErrInvalidDay},
		{"empty day", valid(func(s *schedule.Schedule) { s.Day = "" }), schedule.ErrInvalidDay},
		{"bad date", valid(func(s *schedule.Schedule) { s.Date = "24/10/2026" }), schedule.ErrInvalidDate},
		{"day contradicts date", valid(func(s *schedule.Schedule) {
			s.Date = "2026-10-24"
			s.Day = schedule.Monday
		}), schedule.ErrDayDateMismatch},
		{"unparseable start", valid(func(s *schedule.Schedule) { s.StartTime = "4pm" }), schedule.ErrInvalidStartTime},
		{"unparseable end", valid(func(s *schedule.Schedule) { s.EndTime = "5pm" }), schedule.ErrInvalidEndTime},
		{"start equals end", valid(func(s *schedule.Schedule) { s.EndTime = "16:00" }), schedule.ErrStartNotBefore},
		{"overnight rejected", valid(func(s *schedule.Schedule) {
			s.StartTime = "23:00"
			s.EndTime = "01:00"
		}), schedule.ErrStartNotBefore},
		{"unknown type", valid(func(s *schedule.Schedule) { s.SessionType = "clinic" }), schedule.ErrInvalidType},
		{"negative capacity", valid(func(s *schedule.Schedule) { s.MaxParticipants = intPtr(-1) }), schedule.ErrNegativeCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sched.Validate()
			if err != tt.wantErr {
				t.Errorf("Schedule.Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestSchedule_Occurrences tests on-read expansion of recurring sessions.
func TestSchedule_Occurrences(t *testing.T) {
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC) // Thursday
	to := time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC)

	tue := valid(nil)
	got := tue.Occurrences(from, to)
	var dates []string
	for _, d := range got {
		dates = append(dates, d.Format(schedule.DateLayout))
	}
	want := []string{"2026-10-06", "2026-10-13", "2026-10-20", "2026-10-27"}
	if !reflect.DeepEqual(dates, want) {
		t.Errorf("Occurrences = %v, want %v", dates, want)
	}

	special := valid(func(s *schedule.Schedule) {
		s.Day = ""
		s.Date = "2026-10-24"
	})
	if n := len(special.Occurrences(from, to)); n != 1 {
		t.Errorf("special occurrences = %d, want 1", n)
	}
	if n := len(special.Occurrences(to.AddDate(0, 0, 1), to.AddDate(0, 0, 30))); n != 0 {
		t.Errorf("special occurrences outside range = %d, want 0", n)
	}
}

// TestWeekStart tests Monday alignment.
func TestWeekStart(t *testing.T) {
	sun := time.Date(2026, 10, 25, 18, 30, 0, 0, time.UTC)
	if got := schedule.WeekStart(sun).Format(schedule.DateLayout); got != "2026-10-19" {
		t.Errorf("WeekStart(sunday) = %s, want 2026-10-19", got)
	}
	mon := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	if got := schedule.WeekStart(mon).Format(schedule.DateLayout); got != "2026-10-19" {
		t.Errorf("WeekStart(monday) = %s, want 2026-10-19", got)
	}
}

// TestSchedule_DurationHours tests session length.
func TestSchedule_DurationHours(t *testing.T) {
	s := valid(func(s *schedule.Schedule) { s.EndTime = "17:30" })
	h, err := s.DurationHours()
	if err != nil {
		t.Fatalf("DurationHours: %v", err)
	}
	if h != 1.5 {
		t.Errorf("DurationHours = %v, want 1.5", h)
	}
}

// TestRegistration_Validate tests that registrations must land on a real occurrence.
func TestRegistration_Validate(t *testing.T) {
	def := schedule.Schedule{ID: "s1", Title: "Speed", Day: schedule.Monday, StartTime: "16:00", EndTime: "17:00", SessionType: schedule.TypeRegular}
	tests := []struct {
		name    string
		r       schedule.Registration
		wantErr error
	}{
		{"monday", schedule.Registration{ScheduleID: "s1", Date: "2026-10-19", AthleteID: "a1"}, nil},
		{"tuesday", schedule.Registration{ScheduleID: "s1", Date: "2026-10-20", AthleteID: "a1"}, schedule.ErrNoOccurrence},
		{"bad date", schedule.Registration{ScheduleID: "s1", Date: "19/10/2026", AthleteID: "a1"}, schedule.ErrInvalidDate},
		{"no athlete", schedule.Registration{ScheduleID: "s1", Date: "2026-10-19"}, schedule.ErrEmptyAthlete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.r.Validate(def); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
