package service

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTournament(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tournament := f.create(t, 5)
	assert.Equal(t, "Test Tournament", tournament.Name)
	assert.Equal(t, bracket.TournamentInProgress, tournament.Status)
	assert.Equal(t, 8, tournament.ParticipantCount)
	assert.NotNil(t, tournament.StartedAt)

	stored, err := f.store.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Version)
	assert.Equal(t, bracket.TournamentInProgress, stored.Status)

	participants, err := f.store.LoadParticipants(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, participants, 8)
	byes := 0
	for _, p := range participants {
		if p.IsBye {
			byes++
		}
	}
	assert.Equal(t, 3, byes)

	matches, err := f.store.LoadMatches(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Len(t, matches, 15)

	// Round 1 byes are already settled when the bracket is stored
	first := f.matchAt(t, tournament.ID, bracket.WinnersBracket, 1, 0)
	assert.Equal(t, bracket.StateCompleted, first.State())
}

func TestCreateTournamentRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	testCases := []struct {
		name    string
		title   string
		inputs  []ParticipantInput
		wantErr error
	}{
		{name: "no name", title: "  ", inputs: playerInputs(4), wantErr: ErrInvalidInput},
		{name: "blank participant", title: "Cup", inputs: []ParticipantInput{{Name: "A"}, {Name: ""}}, wantErr: ErrInvalidInput},
		{name: "single participant", title: "Cup", inputs: playerInputs(1), wantErr: bracket.ErrInvalidParticipantCount},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.tournaments.CreateTournament(context.Background(), tc.title, tc.inputs)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	tournaments, err := f.tournaments.ListTournaments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tournaments)
}

func TestCreateTournamentHonorsSeeds(t *testing.T) {
	f := newFixture(t)

	inputs := []ParticipantInput{
		{Name: "Late", Seed: 4},
		{Name: "Top", Seed: 1},
		{Name: "Mid", Seed: 2},
		{Name: "Low", Seed: 3},
	}
	tournament, err := f.tournaments.CreateTournament(context.Background(), "Seeded", inputs)
	require.NoError(t, err)

	participants, err := f.store.LoadParticipants(context.Background(), tournament.ID)
	require.NoError(t, err)
	names := make([]string, len(participants))
	for i, p := range participants {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"Top", "Mid", "Low", "Late"}, names)
}

func TestGetTournamentData(t *testing.T) {
	f := newFixture(t)
	tournament := f.create(t, 3)

	data, err := f.tournaments.GetTournamentData(context.Background(), tournament.ID)
	require.NoError(t, err)

	assert.Equal(t, tournament.ID, data.Tournament.ID)
	assert.Len(t, data.Participants, 4)
	assert.Len(t, data.Matches, 7)
	assert.Nil(t, data.Champion)

	require.NotNil(t, data.NextMatchID)
	assert.Equal(t, f.matchAt(t, tournament.ID, bracket.WinnersBracket, 1, 1).ID, *data.NextMatchID)
}

func TestGetTournamentDataNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.tournaments.GetTournamentData(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestListAndDeleteTournaments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.create(t, 2)
	second := f.create(t, 4)

	tournaments, err := f.tournaments.ListTournaments(ctx)
	require.NoError(t, err)
	assert.Len(t, tournaments, 2)

	require.NoError(t, f.tournaments.DeleteTournament(ctx, first.ID))

	tournaments, err = f.tournaments.ListTournaments(ctx)
	require.NoError(t, err)
	require.Len(t, tournaments, 1)
	assert.Equal(t, second.ID, tournaments[0].ID)

	matches, err := f.store.LoadMatches(ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, matches)
	participants, err := f.store.LoadParticipants(ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, participants)

	err = f.tournaments.DeleteTournament(ctx, first.ID)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestValidateTournament(t *testing.T) {
	f := newFixture(t)
	tournament := f.create(t, 8)

	report, err := f.tournaments.Validate(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.True(t, report.Valid(), "violations: %v", report.Violations)

	_, err = f.tournaments.Validate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestRenameParticipant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournament := f.create(t, 3)

	participants, err := f.store.LoadParticipants(ctx, tournament.ID)
	require.NoError(t, err)
	first, bye := participants[0], participants[3]
	require.True(t, bye.IsBye)

	renamed, err := f.tournaments.RenameParticipant(ctx, tournament.ID, first.ID, "  Champion  ")
	require.NoError(t, err)
	assert.Equal(t, "Champion", renamed.Name)
	assert.Equal(t, first.Seed, renamed.Seed)

	// Renaming leaves the bracket and the version alone
	current, err := f.store.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, current.Version)

	testCases := []struct {
		name          string
		tournamentID  uuid.UUID
		participantID uuid.UUID
		newName       string
		wantErr       error
	}{
		{name: "blank name", tournamentID: tournament.ID, participantID: first.ID, newName: "", wantErr: ErrInvalidInput},
		{name: "bye", tournamentID: tournament.ID, participantID: bye.ID, newName: "Ghost", wantErr: ErrParticipantNotFound},
		{name: "wrong tournament", tournamentID: uuid.New(), participantID: first.ID, newName: "X", wantErr: ErrParticipantNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.tournaments.RenameParticipant(ctx, tc.tournamentID, tc.participantID, tc.newName)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
