package bracket

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Graph holds every match of one tournament. Winners and losers matches live in
// (round, order) arenas so links are stitched by index, lookups by id go through byID.
type Graph struct {
	TournamentID uuid.UUID
	Size         int

	participants map[uuid.UUID]Participant
	winners      [][]*Match
	losers       [][]*Match
	grandFinals  *Match
	reset        *Match
	byID         map[uuid.UUID]*Match
}

func newArena(tournamentID uuid.UUID, size int) *Graph {
	g := &Graph{
		TournamentID: tournamentID,
		Size:         size,
		participants: make(map[uuid.UUID]Participant, size),
		winners:      make([][]*Match, WinnersRounds(size)),
		losers:       make([][]*Match, LosersRounds(size)),
		byID:         make(map[uuid.UUID]*Match, 2*size),
	}
	for r := range g.winners {
		g.winners[r] = make([]*Match, WinnersMatchesInRound(size, r+1))
	}
	for r := range g.losers {
		g.losers[r] = make([]*Match, LosersMatchesInRound(size, r+1))
	}
	return g
}

// NewGraph rebuilds a graph from persisted participants and matches.
func NewGraph(tournamentID uuid.UUID, participants []Participant, matches []Match) (*Graph, error) {
	size := len(participants)
	if !IsPowerOfTwo(size) || size < 2 {
		return nil, fmt.Errorf("%w: %d participants is not a valid bracket size", ErrStructuralInvariant, size)
	}

	g := newArena(tournamentID, size)
	for _, p := range participants {
		g.participants[p.ID] = p
	}
	for i := range matches {
		m := matches[i]
		if err := g.place(&m); err != nil {
			return nil, err
		}
	}
	if err := g.checkComplete(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) place(m *Match) error {
	if _, dup := g.byID[m.ID]; dup {
		return fmt.Errorf("%w: duplicate match id %s", ErrStructuralInvariant, m.ID)
	}

	var cell **Match
	switch m.Segment {
	case WinnersBracket:
		cell = arenaCell(g.winners, m.Round, m.Order)
	case LosersBracket:
		cell = arenaCell(g.losers, m.Round, m.Order)
	case GrandFinals:
		cell = &g.grandFinals
	case GrandFinalsReset:
		cell = &g.reset
	}
	if cell == nil {
		return fmt.Errorf("%w: match %s at %s round %d order %d is out of range",
			ErrStructuralInvariant, m.ID, m.Segment, m.Round, m.Order)
	}
	if *cell != nil {
		return fmt.Errorf("%w: two matches at %s round %d order %d",
			ErrStructuralInvariant, m.Segment, m.Round, m.Order)
	}

	*cell = m
	g.byID[m.ID] = m
	return nil
}

func arenaCell(arena [][]*Match, round, order int) **Match {
	if round < 1 || round > len(arena) {
		return nil
	}
	if order < 0 || order >= len(arena[round-1]) {
		return nil
	}
	return &arena[round-1][order]
}

func (g *Graph) checkComplete() error {
	missing := 0
	for _, round := range g.winners {
		for _, m := range round {
			if m == nil {
				missing++
			}
		}
	}
	for _, round := range g.losers {
		for _, m := range round {
			if m == nil {
				missing++
			}
		}
	}
	if g.grandFinals == nil {
		missing++
	}
	if g.reset == nil {
		missing++
	}
	if missing > 0 {
		return fmt.Errorf("%w: %d matches missing from the bracket", ErrStructuralInvariant, missing)
	}
	return nil
}

func (g *Graph) Match(id uuid.UUID) (*Match, bool) {
	m, ok := g.byID[id]
	return m, ok
}

// At looks a match up by position. Grand finals and reset ignore round and order.
func (g *Graph) At(segment Segment, round, order int) (*Match, bool) {
	var cell **Match
	switch segment {
	case WinnersBracket:
		cell = arenaCell(g.winners, round, order)
	case LosersBracket:
		cell = arenaCell(g.losers, round, order)
	case GrandFinals:
		cell = &g.grandFinals
	case GrandFinalsReset:
		cell = &g.reset
	}
	if cell == nil || *cell == nil {
		return nil, false
	}
	return *cell, true
}

func (g *Graph) Participant(id uuid.UUID) (Participant, bool) {
	p, ok := g.participants[id]
	return p, ok
}

// Participants ordered by seed.
func (g *Graph) Participants() []Participant {
	out := make([]Participant, 0, len(g.participants))
	for _, p := range g.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seed < out[j].Seed })
	return out
}

func (g *Graph) isBye(id *uuid.UUID) bool {
	if id == nil {
		return false
	}
	return g.participants[*id].IsBye
}

// Matches returns copies in bracket order: segment, then round, then order.
func (g *Graph) Matches() []Match {
	out := make([]Match, 0, len(g.byID))
	for _, round := range g.winners {
		for _, m := range round {
			out = append(out, *m)
		}
	}
	for _, round := range g.losers {
		for _, m := range round {
			out = append(out, *m)
		}
	}
	out = append(out, *g.grandFinals, *g.reset)
	return out
}

func (g *Graph) winnersFinal() *Match {
	return g.winners[len(g.winners)-1][0]
}

// Status derives the tournament status from the finals.
func (g *Graph) Status() TournamentStatus {
	if g.Champion() != nil {
		return TournamentCompleted
	}
	return TournamentInProgress
}

// Champion is set once grand finals is won by the winners bracket champion
// or once the reset match is decided.
func (g *Graph) Champion() *uuid.UUID {
	if g.reset.WinnerID != nil {
		return g.reset.WinnerID
	}
	wbChampion := g.winnersFinal().WinnerID
	if g.grandFinals.WinnerID != nil && wbChampion != nil && *g.grandFinals.WinnerID == *wbChampion {
		return g.grandFinals.WinnerID
	}
	return nil
}

// Clone deep copies the match arena. Participants are immutable and shared.
func (g *Graph) Clone() *Graph {
	c := newArena(g.TournamentID, g.Size)
	c.participants = g.participants
	for id, m := range g.byID {
		cp := *m
		c.byID[id] = &cp
	}
	for r, round := range g.winners {
		for o, m := range round {
			c.winners[r][o] = c.byID[m.ID]
		}
	}
	for r, round := range g.losers {
		for o, m := range round {
			c.losers[r][o] = c.byID[m.ID]
		}
	}
	c.grandFinals = c.byID[g.grandFinals.ID]
	c.reset = c.byID[g.reset.ID]
	return c
}
