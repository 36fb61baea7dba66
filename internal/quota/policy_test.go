package quota

import (
	"errors"
	"testing"
	"time"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
)

// 2024-06-03 is a Monday; with Sunday-start weeks its week is 06-02 through 06-08.
var monday = time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)

func bookingsOn(date time.Time, durations ...int) []models.Booking {
	bookings := make([]models.Booking, 0, len(durations))
	start := models.NewTimeOfDay(9, 0)
	for _, duration := range durations {
		bookings = append(bookings, models.NewBooking("alice", date, start, duration, date))
		start = start.Add(duration)
	}
	return bookings
}

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		name      string
		date      time.Time
		weekStart time.Weekday
		want      string
	}{
		{name: "sunday_start_from_monday", date: monday, weekStart: time.Sunday, want: "2024-06-02"},
		{name: "sunday_start_from_sunday", date: monday.AddDate(0, 0, -1), weekStart: time.Sunday, want: "2024-06-02"},
		{name: "sunday_start_from_saturday", date: monday.AddDate(0, 0, 5), weekStart: time.Sunday, want: "2024-06-02"},
		{name: "monday_start_from_sunday", date: monday.AddDate(0, 0, -1), weekStart: time.Monday, want: "2024-05-27"},
		{name: "monday_start_from_monday", date: monday.Add(15 * time.Hour), weekStart: time.Monday, want: "2024-06-03"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := StartOfWeek(test.date, test.weekStart)
			if models.FormatDate(got) != test.want || got.Hour() != 0 {
				t.Fatalf("StartOfWeek = %v, want %s", got, test.want)
			}
		})
	}
}

func TestDailyLimit(t *testing.T) {
	policy := DefaultPolicy()
	existing := bookingsOn(monday, 60, 30)

	if err := policy.Check(existing, monday, 60); !errors.Is(err, ErrDailyLimitExceeded) {
		t.Fatalf("90+60 minutes: error = %v, want ErrDailyLimitExceeded", err)
	}
	if err := policy.Check(existing, monday, 60); !errors.Is(err, models.ErrQuotaExceeded) {
		t.Fatalf("daily error should match ErrQuotaExceeded")
	}
	if err := policy.Check(existing, monday, 30); err != nil {
		t.Fatalf("90+30 minutes is exactly the limit: %v", err)
	}
}

func TestDailyLimitOnlyCountsSameDate(t *testing.T) {
	policy := DefaultPolicy()
	existing := bookingsOn(monday.AddDate(0, 0, 1), 60, 60)

	decision := policy.Evaluate(existing, monday, 60)
	if decision.MinutesOnDate != 0 || decision.DailyExceeded {
		t.Fatalf("decision = %+v", decision)
	}
}

func TestWeeklyLimit(t *testing.T) {
	policy := DefaultPolicy()
	sunday := monday.AddDate(0, 0, -1)
	saturday := monday.AddDate(0, 0, 5)

	three := append(append(bookingsOn(sunday, 30), bookingsOn(monday.AddDate(0, 0, 2), 30)...), bookingsOn(saturday, 30)...)
	if err := policy.Check(three, monday, 30); !errors.Is(err, ErrWeeklyLimitExceeded) {
		t.Fatalf("4th booking: error = %v, want ErrWeeklyLimitExceeded", err)
	}

	two := three[:2]
	if err := policy.Check(two, monday, 30); err != nil {
		t.Fatalf("3rd booking should be accepted: %v", err)
	}
}

func TestWeeklyLimitWindowIsHalfOpen(t *testing.T) {
	policy := DefaultPolicy()
	previousSaturday := monday.AddDate(0, 0, -2)
	nextSunday := monday.AddDate(0, 0, 6)
	existing := append(bookingsOn(previousSaturday, 30, 30, 30), bookingsOn(nextSunday, 30, 30, 30)...)

	decision := policy.Evaluate(existing, monday, 30)
	if decision.BookingsInWeek != 0 {
		t.Fatalf("BookingsInWeek = %d, want 0", decision.BookingsInWeek)
	}
	if models.FormatDate(decision.WeekStart) != "2024-06-02" {
		t.Fatalf("WeekStart = %v", decision.WeekStart)
	}
}

func TestWeekStartIsConfigurable(t *testing.T) {
	policy := DefaultPolicy()
	policy.WeekStart = time.Monday
	sunday := monday.AddDate(0, 0, -1)
	existing := bookingsOn(sunday, 30, 30, 30)

	if err := policy.Check(existing, monday, 30); err != nil {
		t.Fatalf("Sunday belongs to the previous Monday-start week: %v", err)
	}
}

func TestBothChecksEvaluated(t *testing.T) {
	policy := DefaultPolicy()
	existing := append(bookingsOn(monday, 60, 60), bookingsOn(monday.AddDate(0, 0, 1), 30)...)

	decision := policy.Evaluate(existing, monday, 30)
	if !decision.DailyExceeded || !decision.WeeklyExceeded {
		t.Fatalf("decision = %+v, want both exceeded", decision)
	}
	if decision.Allowed() {
		t.Fatalf("Allowed() = true")
	}
	if err := decision.Err(policy, 30); !errors.Is(err, ErrDailyLimitExceeded) {
		t.Fatalf("daily failure should be reported first, got %v", err)
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy: %v", err)
	}
	if err := (Policy{DailyMinutes: 0, WeeklyBookings: 3}).Validate(); err == nil {
		t.Fatalf("expected error for zero daily limit")
	}
}
