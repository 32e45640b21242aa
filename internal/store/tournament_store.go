package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrVersionConflict = errors.New("tournament was modified concurrently")

const (
	createTournamentQuery = `INSERT INTO tournaments (id, name, status, participant_count, version, started_at)
        VALUES (:id, :name, :status, :participant_count, :version, :started_at)`
	createParticipantsQuery = `INSERT INTO participants (id, tournament_id, name, seed, is_bye)
        VALUES (:id, :tournament_id, :name, :seed, :is_bye)`
	createMatchesQuery = `INSERT INTO matches (id, tournament_id, segment, round_number, match_order,
            slot_a_id, slot_b_id, winner_id, win_target_id, win_target_rule, loss_target_id, loss_target_rule, completed_at)
        VALUES (:id, :tournament_id, :segment, :round_number, :match_order,
            :slot_a_id, :slot_b_id, :winner_id, :win_target_id, :win_target_rule, :loss_target_id, :loss_target_rule, :completed_at)`
	updateMatchQuery = `UPDATE matches SET
            slot_a_id = :slot_a_id,
            slot_b_id = :slot_b_id,
            winner_id = :winner_id,
            completed_at = :completed_at
        WHERE id = :id AND tournament_id = :tournament_id`
	startTournamentQuery = `UPDATE tournaments SET status = ?, started_at = ? WHERE id = ? AND status = ?`
	bumpVersionQuery     = `UPDATE tournaments SET version = version + 1 WHERE id = ? AND version = ?`
	updateStatusQuery    = `UPDATE tournaments SET status = ?, completed_at = COALESCE(?, completed_at) WHERE id = ?`

	renameParticipantQuery = `UPDATE participants SET name = ?
        WHERE id = ? AND tournament_id = ? AND is_bye = 0`

	getTournamentQuery    = "SELECT * FROM tournaments WHERE id = ?"
	listTournamentsQuery  = "SELECT * FROM tournaments ORDER BY created_at DESC"
	deleteTournamentQuery = "DELETE FROM tournaments WHERE id = ?"
	getParticipantsQuery  = "SELECT * FROM participants WHERE tournament_id = ? ORDER BY seed ASC"
	getMatchQuery         = "SELECT * FROM matches WHERE id = ?"
	getMatchesQuery       = `SELECT * FROM matches WHERE tournament_id = ?
        ORDER BY CASE segment WHEN 'winners' THEN 0 WHEN 'losers' THEN 1 WHEN 'grand_finals' THEN 2 ELSE 3 END,
            round_number ASC, match_order ASC`
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

// Commit is one atomic change set against a tournament's bracket.
type Commit struct {
	TournamentID    uuid.UUID
	ExpectedVersion int
	Inserts         []bracket.Match
	Updates         []bracket.Match
	Status          *bracket.TournamentStatus
}

func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	_, err := tx.NamedExecContext(ctx, createTournamentQuery, tournament)
	return err
}

func (s *TournamentStore) CreateParticipants(ctx context.Context, tx *sqlx.Tx, participants []bracket.Participant) error {
	if len(participants) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, createParticipantsQuery, participants)
	return err
}

func (s *TournamentStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, createMatchesQuery, matches)
	return err
}

// CreateBracket persists a freshly built tournament in a single transaction. The row is
// written in setup and moved to in progress once its participants and matches exist.
func (s *TournamentStore) CreateBracket(ctx context.Context, tournament *bracket.Tournament, participants []bracket.Participant, matches []bracket.Match) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.CreateTournament(ctx, tx, tournament); err != nil {
		return fmt.Errorf("failed to insert tournament: %w", err)
	}
	if err := s.CreateParticipants(ctx, tx, participants); err != nil {
		return fmt.Errorf("failed to insert participants: %w", err)
	}
	if err := s.CreateMatches(ctx, tx, matches); err != nil {
		return fmt.Errorf("failed to insert matches: %w", err)
	}
	if err := s.StartTournament(ctx, tx, tournament); err != nil {
		return err
	}

	return tx.Commit()
}

// StartTournament moves a tournament from setup to in progress and stamps started_at.
func (s *TournamentStore) StartTournament(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, startTournamentQuery,
		bracket.TournamentInProgress, now, tournament.ID, bracket.TournamentSetup)
	if err != nil {
		return fmt.Errorf("failed to start tournament: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("tournament %s is not in setup", tournament.ID)
	}

	tournament.Status = bracket.TournamentInProgress
	tournament.StartedAt = &now
	return nil
}

// Commit applies the change set only if the tournament is still at ExpectedVersion.
func (s *TournamentStore) Commit(ctx context.Context, c Commit) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, bumpVersionQuery, c.TournamentID, c.ExpectedVersion)
	if err != nil {
		return fmt.Errorf("failed to bump tournament version: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s is no longer at version %d", ErrVersionConflict, c.TournamentID, c.ExpectedVersion)
	}

	if err := s.CreateMatches(ctx, tx, c.Inserts); err != nil {
		return fmt.Errorf("failed to insert matches: %w", err)
	}
	for i := range c.Updates {
		res, err := tx.NamedExecContext(ctx, updateMatchQuery, &c.Updates[i])
		if err != nil {
			return fmt.Errorf("failed to update match %s: %w", c.Updates[i].ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("match %s does not belong to tournament %s", c.Updates[i].ID, c.TournamentID)
		}
	}

	if c.Status != nil {
		var completedAt *time.Time
		if *c.Status == bracket.TournamentCompleted {
			now := time.Now().UTC()
			completedAt = &now
		}
		if _, err := tx.ExecContext(ctx, updateStatusQuery, *c.Status, completedAt, c.TournamentID); err != nil {
			return fmt.Errorf("failed to update tournament status: %w", err)
		}
	}

	return tx.Commit()
}

func (s *TournamentStore) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	if err := s.db.GetContext(ctx, &tournament, getTournamentQuery, id); err != nil {
		return nil, err
	}
	return &tournament, nil
}

func (s *TournamentStore) ListTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	err := s.db.SelectContext(ctx, &tournaments, listTournamentsQuery)
	return tournaments, err
}

// DeleteTournament removes the tournament, participants and matches cascade with it.
func (s *TournamentStore) DeleteTournament(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, deleteTournamentQuery, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *TournamentStore) LoadParticipants(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Participant, error) {
	var participants []bracket.Participant
	err := s.db.SelectContext(ctx, &participants, getParticipantsQuery, tournamentID)
	return participants, err
}

func (s *TournamentStore) LoadMatches(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches, getMatchesQuery, tournamentID)
	return matches, err
}

func (s *TournamentStore) GetMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	if err := s.db.GetContext(ctx, &match, getMatchQuery, id); err != nil {
		return nil, err
	}
	return &match, nil
}

// RenameParticipant changes the display name of a real entrant. Byes cannot be renamed.
func (s *TournamentStore) RenameParticipant(ctx context.Context, tournamentID, participantID uuid.UUID, name string) error {
	res, err := s.db.ExecContext(ctx, renameParticipantQuery, name, participantID, tournamentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
