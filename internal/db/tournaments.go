package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/limyaoqi/psw-2025-1-fc-ping-pong/internal/models"
)

const tournamentColumns = "id, name, format, start_at, end_at, winner, created_by, created_at"

func (q *Queries) InsertTournament(ctx context.Context, tournament models.Tournament) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO tournaments ("+tournamentColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		tournament.ID,
		tournament.Name,
		string(tournament.Format),
		formatTimestamp(tournament.StartAt),
		formatTimestamp(tournament.EndAt),
		nullString(tournament.Winner),
		tournament.CreatedBy,
		formatTimestamp(tournament.CreatedAt),
	)
	if err != nil {
		return storeError(fmt.Sprintf("insert tournament %s", tournament.ID), err)
	}
	return nil
}

// UpdateTournamentRow replaces the mutable columns of a tournament.
func (q *Queries) UpdateTournamentRow(ctx context.Context, tournament models.Tournament) error {
	op := fmt.Sprintf("update tournament %s", tournament.ID)
	result, err := q.db.ExecContext(ctx,
		"UPDATE tournaments SET name = ?, format = ?, start_at = ?, end_at = ?, winner = ? WHERE id = ?",
		tournament.Name,
		string(tournament.Format),
		formatTimestamp(tournament.StartAt),
		formatTimestamp(tournament.EndAt),
		nullString(tournament.Winner),
		tournament.ID,
	)
	if err != nil {
		return storeError(op, err)
	}
	return requireAffected(op, result)
}

// AddParticipants inserts usernames not already registered, keeping the order
// of earlier participants.
func (q *Queries) AddParticipants(ctx context.Context, tournamentID string, usernames []string) error {
	for _, username := range usernames {
		if _, err := q.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO tournament_participants (tournament_id, username) VALUES (?, ?)",
			tournamentID,
			username,
		); err != nil {
			return storeError(fmt.Sprintf("add participant %s to tournament %s", username, tournamentID), err)
		}
	}
	return nil
}

func (q *Queries) requireTournament(ctx context.Context, id string) error {
	var exists int
	if err := q.db.QueryRowContext(ctx, "SELECT 1 FROM tournaments WHERE id = ?", id).Scan(&exists); err != nil {
		return storeError(fmt.Sprintf("find tournament %s", id), err)
	}
	return nil
}

func (q *Queries) GetTournament(ctx context.Context, id string) (models.Tournament, error) {
	op := fmt.Sprintf("get tournament %s", id)
	row := q.db.QueryRowContext(ctx, "SELECT "+tournamentColumns+" FROM tournaments WHERE id = ?", id)
	tournament, err := q.scanTournament(row)
	if err != nil {
		return models.Tournament{}, storeError(op, err)
	}

	participants, err := q.listParticipants(ctx, op,
		"SELECT tournament_id, username FROM tournament_participants WHERE tournament_id = ? ORDER BY rowid", id)
	if err != nil {
		return models.Tournament{}, err
	}
	tournament.Participants = participants[id]
	if tournament.Participants == nil {
		tournament.Participants = []string{}
	}
	return tournament, nil
}

// ListTournaments returns every tournament in creation order.
func (q *Queries) ListTournaments(ctx context.Context) ([]models.Tournament, error) {
	const op = "list tournaments"

	rows, err := q.db.QueryContext(ctx, "SELECT "+tournamentColumns+" FROM tournaments ORDER BY rowid")
	if err != nil {
		return nil, storeError(op, err)
	}
	defer rows.Close()

	var tournaments []models.Tournament
	for rows.Next() {
		tournament, err := q.scanTournament(rows)
		if err != nil {
			return nil, storeError(op, err)
		}
		tournaments = append(tournaments, tournament)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(op, err)
	}

	participants, err := q.listParticipants(ctx, op,
		"SELECT tournament_id, username FROM tournament_participants ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	for i := range tournaments {
		tournaments[i].Participants = participants[tournaments[i].ID]
		if tournaments[i].Participants == nil {
			tournaments[i].Participants = []string{}
		}
	}
	return tournaments, nil
}

func (q *Queries) listParticipants(ctx context.Context, op, query string, args ...any) (map[string][]string, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError(op, err)
	}
	defer rows.Close()

	participants := make(map[string][]string)
	for rows.Next() {
		var tournamentID, username string
		if err := rows.Scan(&tournamentID, &username); err != nil {
			return nil, storeError(op, err)
		}
		participants[tournamentID] = append(participants[tournamentID], username)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(op, err)
	}
	return participants, nil
}

func (q *Queries) scanTournament(row rowScanner) (models.Tournament, error) {
	var (
		tournament                 models.Tournament
		format, start, end, create string
		winner                     sql.NullString
	)
	if err := row.Scan(&tournament.ID, &tournament.Name, &format, &start, &end, &winner, &tournament.CreatedBy, &create); err != nil {
		return models.Tournament{}, err
	}

	var err error
	tournament.Format = models.TournamentFormat(format)
	tournament.Winner = winner.String
	if tournament.StartAt, err = q.parseTimestamp(start); err != nil {
		return models.Tournament{}, err
	}
	if tournament.EndAt, err = q.parseTimestamp(end); err != nil {
		return models.Tournament{}, err
	}
	if tournament.CreatedAt, err = q.parseTimestamp(create); err != nil {
		return models.Tournament{}, err
	}
	return tournament, nil
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

// CreateTournament stores the tournament with its initial participants and
// links each participant to it in one transaction.
func (db *DB) CreateTournament(ctx context.Context, tournament models.Tournament) (string, error) {
	err := db.RunInTx(ctx, func(txdb *DB) error {
		if err := txdb.InsertTournament(ctx, tournament); err != nil {
			return err
		}
		if err := txdb.AddParticipants(ctx, tournament.ID, tournament.Participants); err != nil {
			return err
		}
		for _, username := range tournament.Participants {
			if err := txdb.AddUserTournamentRef(ctx, username, tournament.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return tournament.ID, nil
}

// UpdateTournament writes the tournament's fields and merges its participant
// list into the stored one. Participants are never removed.
func (db *DB) UpdateTournament(ctx context.Context, tournament models.Tournament) error {
	return db.RunInTx(ctx, func(txdb *DB) error {
		if err := txdb.UpdateTournamentRow(ctx, tournament); err != nil {
			return err
		}
		return txdb.AddParticipants(ctx, tournament.ID, tournament.Participants)
	})
}

// JoinTournament adds username to the participant list and links the tournament
// to the user in one transaction. The tournament row itself is not rewritten.
func (db *DB) JoinTournament(ctx context.Context, tournamentID, username string) error {
	return db.RunInTx(ctx, func(txdb *DB) error {
		if err := txdb.requireTournament(ctx, tournamentID); err != nil {
			return err
		}
		if err := txdb.AddParticipants(ctx, tournamentID, []string{username}); err != nil {
			return err
		}
		return txdb.AddUserTournamentRef(ctx, username, tournamentID)
	})
}
