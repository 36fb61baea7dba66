package tournaments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/db"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/testutil"
)

var june3 = testutil.Date(2024, time.June, 3)

func tod(t *testing.T, raw string) *models.TimeOfDay {
	t.Helper()
	parsed, err := models.ParseTimeOfDay(raw)
	if err != nil {
		t.Fatalf("ParseTimeOfDay(%q): %v", raw, err)
	}
	return &parsed
}

func newTestService(t *testing.T, now time.Time) (*Service, *testutil.Clock) {
	t.Helper()

	database := testutil.NewTestDB(t)
	testutil.MustRegister(t, database, "alice", "bob", "carol")
	clock := testutil.NewClock(now)
	svc, err := NewService(database, clock.Now)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, clock
}

func TestCreate(t *testing.T) {
	svc, _ := newTestService(t, june3)
	ctx := context.Background()

	listing, err := svc.Create(ctx, CreateRequest{
		Name:      " Summer Open ",
		Date:      june3,
		Start:     tod(t, "14:00"),
		End:       tod(t, "16:00"),
		CreatedBy: "alice",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if listing.Name != "Summer Open" || listing.Format != models.FormatSingles {
		t.Fatalf("listing = %+v", listing)
	}
	if listing.Status != models.StatusUpcoming || listing.MaxParticipants != 8 || listing.ParticipantCount != 1 {
		t.Fatalf("listing = %+v", listing)
	}
	if !listing.StartAt.Equal(june3.Add(14*time.Hour)) || !listing.EndAt.Equal(june3.Add(16*time.Hour)) {
		t.Fatalf("window = %v - %v", listing.StartAt, listing.EndAt)
	}

	alice, err := svc.store.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if !alice.InTournament(listing.ID) {
		t.Fatalf("creator not linked to tournament: %+v", alice)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t, june3)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateRequest
	}{
		{name: "missing name", req: CreateRequest{Date: june3, Start: tod(t, "10:00"), End: tod(t, "11:00"), CreatedBy: "alice"}},
		{name: "missing date", req: CreateRequest{Name: "Cup", Start: tod(t, "10:00"), End: tod(t, "11:00"), CreatedBy: "alice"}},
		{name: "missing end", req: CreateRequest{Name: "Cup", Date: june3, Start: tod(t, "10:00"), CreatedBy: "alice"}},
		{name: "end before start", req: CreateRequest{Name: "Cup", Date: june3, Start: tod(t, "11:00"), End: tod(t, "10:00"), CreatedBy: "alice"}},
		{name: "end equals start", req: CreateRequest{Name: "Cup", Date: june3, Start: tod(t, "11:00"), End: tod(t, "11:00"), CreatedBy: "alice"}},
		{name: "unknown format", req: CreateRequest{Name: "Cup", Format: "triples", Date: june3, Start: tod(t, "10:00"), End: tod(t, "11:00"), CreatedBy: "alice"}},
		{name: "unregistered creator", req: CreateRequest{Name: "Cup", Date: june3, Start: tod(t, "10:00"), End: tod(t, "11:00"), CreatedBy: "zed"}},
		{name: "no creator", req: CreateRequest{Name: "Cup", Date: june3, Start: tod(t, "10:00"), End: tod(t, "11:00")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.req); !errors.Is(err, models.ErrInputInvalid) {
				t.Fatalf("Create error = %v, want ErrInputInvalid", err)
			}
		})
	}

	all, err := svc.List(ctx, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("invalid requests created %d tournaments", len(all))
	}
}

func TestJoinAndWinner(t *testing.T) {
	svc, _ := newTestService(t, june3)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateRequest{
		Name: "Doubles Night", Format: "doubles", Date: june3,
		Start: tod(t, "18:00"), End: tod(t, "20:00"), CreatedBy: "alice",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.MaxParticipants != 16 {
		t.Fatalf("doubles capacity = %d, want 16", created.MaxParticipants)
	}

	joined, err := svc.Join(ctx, created.ID, "bob")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if joined.ParticipantCount != 2 {
		t.Fatalf("participants = %v", joined.Participants)
	}

	if _, err := svc.Join(ctx, created.ID, "bob"); !errors.Is(err, models.ErrAlreadyJoined) {
		t.Fatalf("second Join error = %v, want ErrAlreadyJoined", err)
	}
	if _, err := svc.Join(ctx, created.ID, "zed"); !errors.Is(err, models.ErrInputInvalid) {
		t.Fatalf("Join(zed) error = %v, want ErrInputInvalid", err)
	}
	if _, err := svc.Join(ctx, "missing", "carol"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("Join(missing) error = %v, want ErrNotFound", err)
	}

	if _, err := svc.SetWinner(ctx, created.ID, "carol"); !errors.Is(err, models.ErrInputInvalid) {
		t.Fatalf("SetWinner(carol) error = %v, want ErrInputInvalid", err)
	}
	won, err := svc.SetWinner(ctx, created.ID, "bob")
	if err != nil {
		t.Fatalf("SetWinner: %v", err)
	}
	if won.Winner != "bob" {
		t.Fatalf("winner = %q", won.Winner)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Winner != "bob" || got.ParticipantCount != 2 {
		t.Fatalf("stored tournament = %+v", got)
	}
}

func TestListDerivesStatus(t *testing.T) {
	svc, clock := newTestService(t, june3)
	ctx := context.Background()

	for _, req := range []CreateRequest{
		{Name: "Morning", Date: june3, Start: tod(t, "09:00"), End: tod(t, "10:00"), CreatedBy: "alice"},
		{Name: "Afternoon", Date: june3, Start: tod(t, "14:00"), End: tod(t, "16:00"), CreatedBy: "alice"},
		{Name: "Tomorrow", Date: june3.AddDate(0, 0, 1), Start: tod(t, "09:00"), End: tod(t, "10:00"), CreatedBy: "bob"},
	} {
		if _, err := svc.Create(ctx, req); err != nil {
			t.Fatalf("Create(%s): %v", req.Name, err)
		}
	}

	clock.Set(june3.Add(15 * time.Hour))

	tests := []struct {
		status models.TournamentStatus
		want   []string
	}{
		{status: models.StatusCompleted, want: []string{"Morning"}},
		{status: models.StatusOngoing, want: []string{"Afternoon"}},
		{status: models.StatusUpcoming, want: []string{"Tomorrow"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			status := tt.status
			listings, err := svc.List(ctx, &status)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			var names []string
			for _, listing := range listings {
				names = append(names, listing.Name)
			}
			if len(names) != len(tt.want) || names[0] != tt.want[0] {
				t.Fatalf("names = %v, want %v", names, tt.want)
			}
		})
	}

	all, err := svc.List(ctx, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].Name != "Morning" || all[2].Name != "Tomorrow" {
		t.Fatalf("all = %+v", all)
	}
}

// racingStore records a winner right after Join reads the tournament.
type racingStore struct {
	*db.DB
	winner string
}

func (s *racingStore) GetTournament(ctx context.Context, id string) (models.Tournament, error) {
	tournament, err := s.DB.GetTournament(ctx, id)
	if err != nil || s.winner == "" {
		return tournament, err
	}
	won := tournament
	won.Winner = s.winner
	if err := s.DB.UpdateTournament(ctx, won); err != nil {
		return models.Tournament{}, err
	}
	s.winner = ""
	return tournament, nil
}

func TestJoinKeepsConcurrentWinner(t *testing.T) {
	database := testutil.NewTestDB(t)
	testutil.MustRegister(t, database, "alice", "bob")
	store := &racingStore{DB: database}
	svc, err := NewService(store, testutil.NewClock(june3).Now)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateRequest{
		Name: "Summer Open", Date: june3, Start: tod(t, "14:00"), End: tod(t, "16:00"), CreatedBy: "alice",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	store.winner = "alice"
	if _, err := svc.Join(ctx, created.ID, "bob"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Winner != "alice" {
		t.Fatalf("winner = %q, want alice", got.Winner)
	}
	if got.ParticipantCount != 2 {
		t.Fatalf("participants = %v", got.Participants)
	}
	bob, err := database.GetUser(ctx, "bob")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if !bob.InTournament(created.ID) {
		t.Fatalf("bob not linked to tournament: %+v", bob)
	}
}
