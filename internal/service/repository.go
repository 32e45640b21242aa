package service

import (
	"context"
	"errors"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/AdamBeresnev/op-bracket/internal/store"
	"github.com/google/uuid"
)

var (
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrInvalidInput        = errors.New("invalid input")
)

// Repository is the persistence collaborator behind both services.
// *store.TournamentStore satisfies it.
type Repository interface {
	CreateBracket(ctx context.Context, tournament *bracket.Tournament, participants []bracket.Participant, matches []bracket.Match) error
	GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error)
	ListTournaments(ctx context.Context) ([]bracket.Tournament, error)
	DeleteTournament(ctx context.Context, id uuid.UUID) error
	GetMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error)
	RenameParticipant(ctx context.Context, tournamentID, participantID uuid.UUID, name string) error
	LoadParticipants(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Participant, error)
	LoadMatches(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Match, error)
	Commit(ctx context.Context, c store.Commit) error
}

var _ Repository = (*store.TournamentStore)(nil)
