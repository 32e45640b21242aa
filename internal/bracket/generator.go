package bracket

import (
	"fmt"
	"sort"

	"github.com/AdamBeresnev/op-bracket/internal/utils"
	"github.com/google/uuid"
)

// Build pads the field with byes, allocates and links every match, validates the
// result and settles round 1 byes. Nothing is returned unless the graph is valid.
func Build(tournamentID uuid.UUID, participants []Participant) (*Graph, error) {
	entrants := make([]Participant, 0, len(participants))
	realCount := 0
	for _, p := range participants {
		if !p.IsBye {
			entrants = append(entrants, p)
			realCount++
		}
	}
	if realCount < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidParticipantCount, realCount)
	}

	entrants = padWithByes(tournamentID, entrants)
	size := len(entrants)

	g := newArena(tournamentID, size)
	for _, p := range entrants {
		g.participants[p.ID] = p
	}

	g.allocate()
	g.seedRoundOne(entrants)
	g.link()

	report := Validate(size, g.Matches())
	if !report.Valid() {
		return nil, report.Err()
	}

	if _, err := g.settleByes(); err != nil {
		return nil, err
	}
	return g, nil
}

// Real entrants keep their relative seed order and get dense seeds 1..n,
// byes are appended after them.
func padWithByes(tournamentID uuid.UUID, entrants []Participant) []Participant {
	sort.SliceStable(entrants, func(i, j int) bool { return entrants[i].Seed < entrants[j].Seed })

	size := BracketSize(len(entrants))
	padded := make([]Participant, 0, size)
	for i, p := range entrants {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.TournamentID = tournamentID
		p.Seed = i + 1
		padded = append(padded, p)
	}
	for i := len(entrants); i < size; i++ {
		padded = append(padded, Participant{
			ID:           uuid.New(),
			TournamentID: tournamentID,
			Name:         fmt.Sprintf("BYE %d", i-len(entrants)+1),
			Seed:         i + 1,
			IsBye:        true,
		})
	}
	return padded
}

func (g *Graph) allocate() {
	newMatch := func(segment Segment, round, order int) *Match {
		m := &Match{
			ID:           uuid.New(),
			TournamentID: g.TournamentID,
			Segment:      segment,
			Round:        round,
			Order:        order,
		}
		g.byID[m.ID] = m
		return m
	}

	for r := range g.winners {
		for o := range g.winners[r] {
			g.winners[r][o] = newMatch(WinnersBracket, r+1, o)
		}
	}
	for r := range g.losers {
		for o := range g.losers[r] {
			g.losers[r][o] = newMatch(LosersBracket, r+1, o)
		}
	}
	g.grandFinals = newMatch(GrandFinals, 1, 0)
	g.reset = newMatch(GrandFinalsReset, 2, 0)
}

func (g *Graph) seedRoundOne(entrants []Participant) {
	for o, pair := range SeedPairing(g.Size) {
		m := g.winners[0][o]
		m.SlotAID = utils.Ptr(entrants[pair[0]-1].ID)
		m.SlotBID = utils.Ptr(entrants[pair[1]-1].ID)
	}
}

func (g *Graph) link() {
	wbRounds := len(g.winners)
	lbRounds := len(g.losers)

	for r, round := range g.winners {
		wbRound := r + 1
		for o, m := range round {
			if wbRound < wbRounds {
				linkWin(m, g.winners[r+1][o/2], FirstEmptySlot)
			} else {
				linkWin(m, g.grandFinals, FixedSlotA)
			}

			switch {
			case lbRounds == 0:
				// Two entrants: the winners final loser is the losers champion
				linkLoss(m, g.grandFinals, FixedSlotB)
			case wbRound == 1:
				linkLoss(m, g.losers[DropRound(1)-1][o/2], FirstEmptySlot)
			default:
				linkLoss(m, g.losers[DropRound(wbRound)-1][o], FixedSlotB)
			}
		}
	}

	for r, round := range g.losers {
		lbRound := r + 1
		for o, m := range round {
			switch {
			case lbRound == lbRounds:
				linkWin(m, g.grandFinals, FixedSlotB)
			case lbRound%2 == 1:
				linkWin(m, g.losers[r+1][o], FixedSlotA)
			default:
				linkWin(m, g.losers[r+1][o/2], FirstEmptySlot)
			}
		}
	}
}

func linkWin(from, to *Match, rule SlotRule) {
	from.WinTargetID = utils.Ptr(to.ID)
	from.WinTargetRule = utils.Ptr(rule)
}

func linkLoss(from, to *Match, rule SlotRule) {
	from.LossTargetID = utils.Ptr(to.ID)
	from.LossTargetRule = utils.Ptr(rule)
}
