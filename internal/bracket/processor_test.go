package bracket

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/AdamBeresnev/op-bracket/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func report(t *testing.T, g *Graph, m *Match, winner Participant) *Outcome {
	t.Helper()
	out, err := g.ReportResult(m.ID, winner.ID)
	require.NoError(t, err, "reporting %s as winner of %s %d/%d", winner.Name, m.Segment, m.Round, m.Order)
	return out
}

func TestReportResultRejections(t *testing.T) {
	g := mustBuild(t, 4)
	seeds := bySeed(g)
	wbFinal := at(t, g, WinnersBracket, 2, 0)
	wb1 := at(t, g, WinnersBracket, 1, 0)

	testCases := []struct {
		name    string
		matchID uuid.UUID
		winner  uuid.UUID
		wantErr error
	}{
		{name: "unknown match", matchID: uuid.New(), winner: seeds[1].ID, wantErr: ErrMatchNotFound},
		{name: "match still waiting", matchID: wbFinal.ID, winner: seeds[1].ID, wantErr: ErrNotReady},
		{name: "winner from another match", matchID: wb1.ID, winner: seeds[2].ID, wantErr: ErrInvalidWinner},
		{name: "stranger", matchID: wb1.ID, winner: uuid.New(), wantErr: ErrInvalidWinner},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			before := g.Matches()
			_, err := g.ReportResult(tc.matchID, tc.winner)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, before, g.Matches())
		})
	}
}

func TestReportResultReplayAndConflict(t *testing.T) {
	g := mustBuild(t, 4)
	seeds := bySeed(g)
	wb1 := at(t, g, WinnersBracket, 1, 0)

	first := report(t, g, wb1, seeds[1])
	assert.False(t, first.Replayed)
	require.Len(t, first.Events, 1)
	assert.Len(t, first.Updated, 3)

	before := g.Matches()
	again := report(t, g, wb1, seeds[1])
	assert.True(t, again.Replayed)
	assert.Empty(t, again.Events)
	assert.Empty(t, again.Updated)
	assert.Equal(t, before, g.Matches())

	_, err := g.ReportResult(wb1.ID, seeds[4].ID)
	assert.ErrorIs(t, err, ErrConflictingResult)
	assert.Equal(t, before, g.Matches())
}

func TestReportResultFills(t *testing.T) {
	g := mustBuild(t, 4)
	seeds := bySeed(g)
	wb1 := at(t, g, WinnersBracket, 1, 0)
	wbFinal := at(t, g, WinnersBracket, 2, 0)
	lb1 := at(t, g, LosersBracket, 1, 0)

	out := report(t, g, wb1, seeds[4])

	assert.Equal(t, []SlotFill{
		{MatchID: wbFinal.ID, Slot: SlotA, ParticipantID: seeds[4].ID},
		{MatchID: lb1.ID, Slot: SlotA, ParticipantID: seeds[1].ID},
	}, out.Fills)

	require.Len(t, out.Events, 1)
	ev := out.Events[0]
	assert.Equal(t, wb1.ID, ev.MatchID)
	assert.Equal(t, seeds[4].ID, ev.WinnerID)
	assert.Equal(t, seeds[1].ID, ev.LoserID)
	assert.False(t, ev.AutoResolved)
	assert.Equal(t, TournamentInProgress, ev.Status)

	assert.Equal(t, seeds[4].ID, *wb1.WinnerID)
	assert.Equal(t, seeds[1].ID, *wb1.LoserID())
	assert.Equal(t, StatePending, wbFinal.State())
}

// playFourUntilFinals has seed 1 win the winners bracket and seed 3 the losers bracket.
func playFourUntilFinals(t *testing.T) (*Graph, map[int]Participant) {
	t.Helper()
	g := mustBuild(t, 4)
	seeds := bySeed(g)

	report(t, g, at(t, g, WinnersBracket, 1, 0), seeds[1])
	report(t, g, at(t, g, WinnersBracket, 1, 1), seeds[2])
	report(t, g, at(t, g, WinnersBracket, 2, 0), seeds[1])

	lb1 := at(t, g, LosersBracket, 1, 0)
	assert.Equal(t, seeds[4].ID, *lb1.SlotAID)
	assert.Equal(t, seeds[3].ID, *lb1.SlotBID)
	report(t, g, lb1, seeds[3])

	lb2 := at(t, g, LosersBracket, 2, 0)
	assert.Equal(t, seeds[3].ID, *lb2.SlotAID)
	assert.Equal(t, seeds[2].ID, *lb2.SlotBID)
	report(t, g, lb2, seeds[3])

	gf := at(t, g, GrandFinals, 1, 0)
	require.Equal(t, StateReady, gf.State())
	assert.Equal(t, seeds[1].ID, *gf.SlotAID)
	assert.Equal(t, seeds[3].ID, *gf.SlotBID)
	return g, seeds
}

func TestGrandFinalsWonByWinnersChampion(t *testing.T) {
	g, seeds := playFourUntilFinals(t)

	out := report(t, g, at(t, g, GrandFinals, 1, 0), seeds[1])

	assert.Equal(t, TournamentCompleted, out.Status)
	require.NotNil(t, out.Champion)
	assert.Equal(t, seeds[1].ID, *out.Champion)
	assert.Empty(t, out.Fills)

	reset := at(t, g, GrandFinalsReset, 2, 0)
	assert.Nil(t, reset.SlotAID)
	assert.Nil(t, reset.SlotBID)
	assert.Equal(t, TournamentCompleted, g.Status())
}

func TestGrandFinalsReset(t *testing.T) {
	g, seeds := playFourUntilFinals(t)
	reset := at(t, g, GrandFinalsReset, 2, 0)

	out := report(t, g, at(t, g, GrandFinals, 1, 0), seeds[3])

	assert.Equal(t, TournamentInProgress, out.Status)
	assert.Nil(t, out.Champion)
	assert.Equal(t, []SlotFill{
		{MatchID: reset.ID, Slot: SlotA, ParticipantID: seeds[1].ID},
		{MatchID: reset.ID, Slot: SlotB, ParticipantID: seeds[3].ID},
	}, out.Fills)
	assert.Equal(t, StateReady, reset.State())

	out = report(t, g, reset, seeds[3])
	assert.Equal(t, TournamentCompleted, out.Status)
	require.NotNil(t, out.Champion)
	assert.Equal(t, seeds[3].ID, *out.Champion)
	assert.Equal(t, seeds[3].ID, *g.Champion())
}

func TestReportResultIsAtomic(t *testing.T) {
	g := mustBuild(t, 4)
	seeds := bySeed(g)
	wb1 := at(t, g, WinnersBracket, 1, 0)

	// The win is placed before the broken loss link is followed
	wb1.LossTargetID = utils.Ptr(uuid.New())
	before := g.Matches()

	_, err := g.ReportResult(wb1.ID, seeds[1].ID)
	require.ErrorIs(t, err, ErrStructuralInvariant)
	assert.Equal(t, before, g.Matches())
	assert.Nil(t, at(t, g, WinnersBracket, 2, 0).SlotAID)
}

func TestReportResultOccupiedSlot(t *testing.T) {
	g := mustBuild(t, 4)
	seeds := bySeed(g)

	wbFinal := at(t, g, WinnersBracket, 2, 0)
	wbFinal.SlotAID = utils.Ptr(seeds[3].ID)
	wbFinal.SlotBID = utils.Ptr(seeds[2].ID)

	_, err := g.ReportResult(at(t, g, WinnersBracket, 1, 0).ID, seeds[1].ID)
	assert.ErrorIs(t, err, ErrStructuralInvariant)
	assert.Nil(t, at(t, g, WinnersBracket, 1, 0).WinnerID)
}

func TestRandomTournamentsFinish(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, n := range []int{2, 3, 4, 5, 7, 8, 11, 16, 23, 32} {
		for run := 0; run < 5; run++ {
			t.Run(fmt.Sprintf("%d entrants run %d", n, run), func(t *testing.T) {
				g := mustBuild(t, n)
				playRandomly(t, g, rng)

				assert.Equal(t, TournamentCompleted, g.Status())
				champion := g.Champion()
				require.NotNil(t, champion)
				p, ok := g.Participant(*champion)
				require.True(t, ok)
				assert.False(t, p.IsBye)

				losses := make(map[uuid.UUID]int)
				for _, m := range g.Matches() {
					if m.Segment == WinnersBracket || m.Segment == LosersBracket {
						assert.Equal(t, StateCompleted, m.State(), "%s %d/%d", m.Segment, m.Round, m.Order)
					}
					if m.WinnerID != nil {
						losses[*m.LoserID()]++
					}
				}

				for _, p := range g.Participants() {
					if p.IsBye {
						continue
					}
					if p.ID == *champion {
						assert.LessOrEqual(t, losses[p.ID], 1)
						continue
					}
					assert.Equal(t, 2, losses[p.ID], "%s should be eliminated with two losses", p.Name)
				}
			})
		}
	}
}

func playRandomly(t *testing.T, g *Graph, rng *rand.Rand) {
	t.Helper()
	for step := 0; step <= 2*g.Size+2; step++ {
		var ready []Match
		for _, m := range g.Matches() {
			if m.State() == StateReady {
				ready = append(ready, m)
			}
		}
		if len(ready) == 0 {
			return
		}

		m := ready[rng.Intn(len(ready))]
		require.False(t, g.isBye(m.SlotAID) || g.isBye(m.SlotBID), "bye left in a ready match")

		winner := *m.SlotAID
		if rng.Intn(2) == 1 {
			winner = *m.SlotBID
		}
		_, err := g.ReportResult(m.ID, winner)
		require.NoError(t, err)
	}
	t.Fatalf("tournament of %d did not finish", g.Size)
}
