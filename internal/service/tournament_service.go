package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/AdamBeresnev/op-bracket/internal/utils"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type TournamentService struct {
	repo Repository
}

func NewTournamentService(repo Repository) *TournamentService {
	return &TournamentService{repo: repo}
}

type ParticipantInput struct {
	Name string `json:"name"`
	// Optional, defaults to the input position
	Seed int `json:"seed,omitempty"`
}

type TournamentData struct {
	Tournament   *bracket.Tournament
	Participants []bracket.Participant
	Matches      []bracket.Match
	Champion     *uuid.UUID
	NextMatchID  *uuid.UUID
}

func (s *TournamentService) CreateTournament(ctx context.Context, name string, inputs []ParticipantInput) (*bracket.Tournament, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrInvalidInput)
	}

	tournamentID := uuid.New()
	participants := make([]bracket.Participant, 0, len(inputs))
	for i, input := range inputs {
		pName := strings.TrimSpace(input.Name)
		if pName == "" {
			return nil, fmt.Errorf("%w: participant %d has no name", ErrInvalidInput, i+1)
		}
		seed := input.Seed
		if seed == 0 {
			seed = i + 1
		}
		participants = append(participants, bracket.Participant{
			ID:           uuid.New(),
			TournamentID: tournamentID,
			Name:         pName,
			Seed:         seed,
		})
	}

	g, err := bracket.Build(tournamentID, participants)
	if err != nil {
		return nil, err
	}

	tournament := &bracket.Tournament{
		ID:               tournamentID,
		Name:             name,
		Status:           bracket.TournamentSetup,
		ParticipantCount: g.Size,
	}

	if err := s.repo.CreateBracket(ctx, tournament, g.Participants(), g.Matches()); err != nil {
		return nil, fmt.Errorf("failed to persist bracket: %w", err)
	}

	slog.InfoContext(ctx, "tournament created",
		"tournament_id", tournamentID,
		"participants", len(participants),
		"bracket_size", g.Size,
	)
	return tournament, nil
}

func (s *TournamentService) GetTournamentData(ctx context.Context, id uuid.UUID) (*TournamentData, error) {
	var (
		tournament   *bracket.Tournament
		participants []bracket.Participant
		matches      []bracket.Match
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		tournament, err = s.repo.GetTournament(egCtx, id)
		return err
	})
	eg.Go(func() error {
		var err error
		participants, err = s.repo.LoadParticipants(egCtx, id)
		return err
	})
	eg.Go(func() error {
		var err error
		matches, err = s.repo.LoadMatches(egCtx, id)
		return err
	})
	if err := eg.Wait(); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrTournamentNotFound, id)
		}
		return nil, err
	}

	g, err := bracket.NewGraph(id, participants, matches)
	if err != nil {
		return nil, err
	}

	var nextMatchID *uuid.UUID
	for _, m := range g.Matches() {
		if m.State() == bracket.StateReady {
			nextMatchID = utils.Ptr(m.ID)
			break
		}
	}

	return &TournamentData{
		Tournament:   tournament,
		Participants: participants,
		Matches:      g.Matches(),
		Champion:     g.Champion(),
		NextMatchID:  nextMatchID,
	}, nil
}

func (s *TournamentService) ListTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	return s.repo.ListTournaments(ctx)
}

func (s *TournamentService) DeleteTournament(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteTournament(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrTournamentNotFound, id)
		}
		return err
	}
	slog.InfoContext(ctx, "tournament deleted", "tournament_id", id)
	return nil
}

// RenameParticipant only touches the display name, the bracket is unaffected.
func (s *TournamentService) RenameParticipant(ctx context.Context, tournamentID, participantID uuid.UUID, name string) (*bracket.Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: participant name is required", ErrInvalidInput)
	}

	if err := s.repo.RenameParticipant(ctx, tournamentID, participantID, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s in tournament %s", ErrParticipantNotFound, participantID, tournamentID)
		}
		return nil, err
	}

	participants, err := s.repo.LoadParticipants(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	for _, p := range participants {
		if p.ID == participantID {
			slog.InfoContext(ctx, "participant renamed", "tournament_id", tournamentID, "participant_id", participantID)
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrParticipantNotFound, participantID)
}

// Validate runs the structural checks over the persisted bracket.
func (s *TournamentService) Validate(ctx context.Context, id uuid.UUID) (bracket.Report, error) {
	tournament, err := s.repo.GetTournament(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return bracket.Report{}, fmt.Errorf("%w: %s", ErrTournamentNotFound, id)
		}
		return bracket.Report{}, err
	}

	matches, err := s.repo.LoadMatches(ctx, id)
	if err != nil {
		return bracket.Report{}, err
	}
	return bracket.Validate(tournament.ParticipantCount, matches), nil
}
