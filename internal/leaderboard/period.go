package leaderboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
)

type Period string

const (
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

func ParsePeriod(raw string) (Period, error) {
	switch period := Period(strings.ToLower(strings.TrimSpace(raw))); period {
	case PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear:
		return period, nil
	default:
		return "", fmt.Errorf("%w: period must be week, month, quarter, or year", models.ErrInputInvalid)
	}
}

// Start subtracts the period from now using calendar arithmetic, so a month
// back from March 31 normalizes the way time.AddDate does.
func (p Period) Start(now time.Time) time.Time {
	switch p {
	case PeriodMonth:
		return now.AddDate(0, -1, 0)
	case PeriodQuarter:
		return now.AddDate(0, -3, 0)
	case PeriodYear:
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, 0, -7)
	}
}

func (p Period) Label() string {
	switch p {
	case PeriodMonth:
		return "This Month"
	case PeriodQuarter:
		return "This Quarter"
	case PeriodYear:
		return "This Year"
	default:
		return "This Week"
	}
}
