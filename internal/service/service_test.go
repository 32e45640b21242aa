package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/AdamBeresnev/op-bracket/internal/db"
	"github.com/AdamBeresnev/op-bracket/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Connect("file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(database.DB), "Failed to apply migrations")
	return database
}

type recordingSink struct {
	mu     sync.Mutex
	events []bracket.MatchCompleted
}

func (s *recordingSink) Publish(_ context.Context, _ uuid.UUID, events []bracket.MatchCompleted) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type fixture struct {
	store       *store.TournamentStore
	tournaments *TournamentService
	matches     *MatchService
	sink        *recordingSink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tournamentStore := store.NewTournamentStore(setupTestDB(t))
	sink := &recordingSink{}
	return &fixture{
		store:       tournamentStore,
		tournaments: NewTournamentService(tournamentStore),
		matches:     NewMatchService(tournamentStore, sink),
		sink:        sink,
	}
}

func playerInputs(n int) []ParticipantInput {
	inputs := make([]ParticipantInput, n)
	for i := range inputs {
		inputs[i] = ParticipantInput{Name: fmt.Sprintf("Player %d", i+1)}
	}
	return inputs
}

func (f *fixture) create(t *testing.T, n int) *bracket.Tournament {
	t.Helper()
	tournament, err := f.tournaments.CreateTournament(context.Background(), "Test Tournament", playerInputs(n))
	require.NoError(t, err)
	return tournament
}

func (f *fixture) matchAt(t *testing.T, tournamentID uuid.UUID, segment bracket.Segment, round, order int) bracket.Match {
	t.Helper()
	matches, err := f.store.LoadMatches(context.Background(), tournamentID)
	require.NoError(t, err)
	for _, m := range matches {
		if m.Segment == segment && m.Round == round && m.Order == order {
			return m
		}
	}
	t.Fatalf("no match at %s %d/%d", segment, round, order)
	return bracket.Match{}
}
