package tournaments

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/testutil"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/tournaments"
)

type listingBody struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Format           string   `json:"format"`
	Participants     []string `json:"participants"`
	Winner           string   `json:"winner"`
	Status           string   `json:"status"`
	ParticipantCount int      `json:"participantCount"`
	MaxParticipants  int      `json:"maxParticipants"`
}

func serve(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestTournamentLifecycle(t *testing.T) {
	database := testutil.NewTestDB(t)
	testutil.MustRegister(t, database, "alice", "bob", "carol")
	clock := testutil.NewClock(time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC))

	service, err := tournaments.NewService(database, clock.Now)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	mux := http.NewServeMux()
	NewHandlers(service, time.UTC).Register(mux)

	rec := serve(mux, http.MethodPost, "/api/v1/tournaments",
		`{"name":"Summer Open","format":"doubles","date":"2024-06-03","startTime":"14:00","endTime":"16:00","createdBy":"alice"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created listingBody
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Status != "upcoming" || created.ParticipantCount != 1 || created.MaxParticipants != 16 {
		t.Fatalf("created = %+v", created)
	}

	steps := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
	}{
		{"end before start", http.MethodPost, "/api/v1/tournaments",
			`{"name":"Backwards","date":"2024-06-03","startTime":"16:00","endTime":"14:00","createdBy":"alice"}`, http.StatusBadRequest},
		{"missing time", http.MethodPost, "/api/v1/tournaments",
			`{"name":"No time","date":"2024-06-03","createdBy":"alice"}`, http.StatusBadRequest},
		{"join", http.MethodPost, "/api/v1/tournaments/" + created.ID + "/participants", `{"username":"bob"}`, http.StatusOK},
		{"join twice", http.MethodPost, "/api/v1/tournaments/" + created.ID + "/participants", `{"username":"bob"}`, http.StatusConflict},
		{"join missing tournament", http.MethodPost, "/api/v1/tournaments/nope/participants", `{"username":"bob"}`, http.StatusNotFound},
		{"winner not participating", http.MethodPut, "/api/v1/tournaments/" + created.ID + "/winner", `{"username":"carol"}`, http.StatusBadRequest},
		{"winner", http.MethodPut, "/api/v1/tournaments/" + created.ID + "/winner", `{"username":"bob"}`, http.StatusOK},
		{"bad status filter", http.MethodGet, "/api/v1/tournaments?status=cancelled", "", http.StatusBadRequest},
	}
	for _, step := range steps {
		if rec := serve(mux, step.method, step.target, step.body); rec.Code != step.wantStatus {
			t.Fatalf("%s: status = %d, want %d (body %s)", step.name, rec.Code, step.wantStatus, rec.Body.String())
		}
	}

	rec = serve(mux, http.MethodGet, "/api/v1/tournaments/"+created.ID, "")
	var got listingBody
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Winner != "bob" || got.ParticipantCount != 2 {
		t.Fatalf("tournament = %+v", got)
	}

	clock.Set(time.Date(2024, time.June, 3, 15, 0, 0, 0, time.UTC))
	rec = serve(mux, http.MethodGet, "/api/v1/tournaments?status=ongoing", "")
	var list struct {
		Tournaments []listingBody `json:"tournaments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Tournaments) != 1 || list.Tournaments[0].Status != "ongoing" {
		t.Fatalf("ongoing = %+v", list.Tournaments)
	}
}
