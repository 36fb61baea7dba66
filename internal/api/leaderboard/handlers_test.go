package leaderboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/leaderboard"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/testutil"
)

type boardBody struct {
	Period  string              `json:"period"`
	Label   string              `json:"label"`
	Entries []leaderboard.Entry `json:"entries"`
	Summary leaderboard.Summary `json:"summary"`
}

func TestLeaderboard(t *testing.T) {
	database := testutil.NewTestDB(t)
	testutil.MustRegister(t, database, "alice", "bob")
	created := time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC)
	for _, booking := range []models.Booking{
		models.NewBooking("bob", testutil.Date(2024, time.June, 6), models.NewTimeOfDay(10, 0), 30, created),
		models.NewBooking("alice", testutil.Date(2024, time.June, 5), models.NewTimeOfDay(9, 0), 60, created),
		models.NewBooking("alice", testutil.Date(2024, time.May, 1), models.NewTimeOfDay(9, 0), 60, created),
	} {
		if _, err := database.CreateBooking(t.Context(), booking); err != nil {
			t.Fatalf("CreateBooking: %v", err)
		}
	}

	clock := testutil.NewClock(time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC))
	service, err := leaderboard.NewService(database, clock.Now)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	mux := http.NewServeMux()
	NewHandlers(service, leaderboard.PeriodWeek, 10).Register(mux)

	get := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}

	rec := get("/api/v1/leaderboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var board boardBody
	if err := json.Unmarshal(rec.Body.Bytes(), &board); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if board.Period != "week" || board.Label != "This Week" {
		t.Fatalf("period = %s (%s)", board.Period, board.Label)
	}
	if len(board.Entries) != 2 || board.Entries[0].Username != "alice" || board.Entries[0].PlayMinutes != 60 {
		t.Fatalf("entries = %+v", board.Entries)
	}

	rec = get("/api/v1/leaderboard?period=quarter&limit=1")
	board = boardBody{}
	if err := json.Unmarshal(rec.Body.Bytes(), &board); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(board.Entries) != 1 || board.Entries[0].PlayMinutes != 120 {
		t.Fatalf("quarter entries = %+v", board.Entries)
	}
	if board.Summary.ActivePlayers != 2 || board.Summary.TotalMinutes != 150 {
		t.Fatalf("summary = %+v, want 2 players and 150 minutes", board.Summary)
	}

	for _, target := range []string{
		"/api/v1/leaderboard?period=decade",
		"/api/v1/leaderboard?limit=0",
		"/api/v1/leaderboard?limit=ten",
	} {
		if rec := get(target); rec.Code != http.StatusBadRequest {
			t.Fatalf("GET %s status = %d, want 400", target, rec.Code)
		}
	}
}
