package bracket

import (
	"fmt"
	"sort"
	"time"

	"github.com/AdamBeresnev/op-bracket/internal/utils"
	"github.com/google/uuid"
)

// MatchCompleted is emitted for every match decided by a report, including the
// bye matches it auto-resolved. A notification layer may forward it as is.
type MatchCompleted struct {
	MatchID      uuid.UUID        `json:"match_id"`
	WinnerID     uuid.UUID        `json:"winner_id"`
	LoserID      uuid.UUID        `json:"loser_id"`
	Fills        []SlotFill       `json:"fills"`
	Status       TournamentStatus `json:"status"`
	AutoResolved bool             `json:"auto_resolved"`
}

type Outcome struct {
	Events []MatchCompleted `json:"events"`
	Fills  []SlotFill       `json:"fills"`
	Status TournamentStatus `json:"status"`

	// Set once the tournament has a champion
	Champion *uuid.UUID `json:"champion,omitempty"`

	// Copies of every match the report changed, in bracket order
	Updated []Match `json:"-"`

	// True when the exact result was already recorded
	Replayed bool `json:"replayed"`
}

// ReportResult records winnerID as the winner of matchID and propagates it. The report
// and every bye resolution it triggers are applied to a clone first, so on error the
// graph is left untouched.
func (g *Graph) ReportResult(matchID, winnerID uuid.UUID) (*Outcome, error) {
	m, ok := g.byID[matchID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}

	if m.WinnerID != nil {
		if *m.WinnerID == winnerID {
			return &Outcome{Status: g.Status(), Champion: g.Champion(), Replayed: true}, nil
		}
		return nil, fmt.Errorf("%w: match %s was won by %s", ErrConflictingResult, matchID, *m.WinnerID)
	}
	if m.State() != StateReady {
		return nil, fmt.Errorf("%w: %s", ErrNotReady, matchID)
	}
	if !m.HasParticipant(winnerID) {
		return nil, fmt.Errorf("%w: %s is not in match %s", ErrInvalidWinner, winnerID, matchID)
	}

	work := g.Clone()
	p := newPropagation(work)
	if err := p.complete(work.byID[matchID], winnerID, false); err != nil {
		return nil, err
	}
	if err := p.drain(); err != nil {
		return nil, err
	}

	return g.adopt(work, p), nil
}

// settleByes resolves every ready match that holds a bye. Used right after generation.
func (g *Graph) settleByes() ([]MatchCompleted, error) {
	p := newPropagation(g)
	for _, m := range g.winners[0] {
		p.enqueueIfBye(m)
	}
	if err := p.drain(); err != nil {
		return nil, err
	}
	return p.events, nil
}

func (g *Graph) adopt(work *Graph, p *propagation) *Outcome {
	out := &Outcome{
		Events:   p.events,
		Status:   work.Status(),
		Champion: work.Champion(),
	}
	for _, ev := range p.events {
		out.Fills = append(out.Fills, ev.Fills...)
	}

	for id := range p.touched {
		*g.byID[id] = *work.byID[id]
		out.Updated = append(out.Updated, *g.byID[id])
	}
	sort.Slice(out.Updated, func(i, j int) bool {
		a, b := out.Updated[i], out.Updated[j]
		if a.Segment != b.Segment {
			return a.Segment.Rank() < b.Segment.Rank()
		}
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		return a.Order < b.Order
	})
	return out
}

type propagation struct {
	g       *Graph
	queue   []*Match
	touched map[uuid.UUID]struct{}
	events  []MatchCompleted
	now     time.Time
}

func newPropagation(g *Graph) *propagation {
	return &propagation{
		g:       g,
		touched: make(map[uuid.UUID]struct{}),
		now:     time.Now().UTC(),
	}
}

// drain runs bye resolution to a fixed point. Each match completes at most once,
// so the loop is bounded by the match count.
func (p *propagation) drain() error {
	limit := len(p.g.byID)
	for steps := 0; len(p.queue) > 0; steps++ {
		if steps > limit {
			return fmt.Errorf("%w: bye resolution did not settle", ErrStructuralInvariant)
		}
		m := p.queue[0]
		p.queue = p.queue[1:]
		if m.State() != StateReady {
			continue
		}
		if err := p.complete(m, p.byeWinner(m), true); err != nil {
			return err
		}
	}
	return nil
}

// A real entrant always beats a bye, two byes resolve to slot A.
func (p *propagation) byeWinner(m *Match) uuid.UUID {
	if p.g.isBye(m.SlotAID) && !p.g.isBye(m.SlotBID) {
		return *m.SlotBID
	}
	return *m.SlotAID
}

func (p *propagation) enqueueIfBye(m *Match) {
	if m.State() == StateReady && (p.g.isBye(m.SlotAID) || p.g.isBye(m.SlotBID)) {
		p.queue = append(p.queue, m)
	}
}

func (p *propagation) complete(m *Match, winnerID uuid.UUID, auto bool) error {
	loserID := m.Opponent(winnerID)
	m.WinnerID = utils.Ptr(winnerID)
	m.CompletedAt = utils.Ptr(p.now)
	p.touched[m.ID] = struct{}{}

	ev := MatchCompleted{
		MatchID:      m.ID,
		WinnerID:     winnerID,
		LoserID:      loserID,
		AutoResolved: auto,
	}

	switch m.Segment {
	case GrandFinals:
		wbChampion := p.g.winnersFinal().WinnerID
		if wbChampion == nil {
			return fmt.Errorf("%w: grand finals decided before the winners final", ErrStructuralInvariant)
		}
		if winnerID != *wbChampion {
			// Losers champion took the first set, both now carry one loss
			fills, err := p.fillReset(*wbChampion, winnerID)
			if err != nil {
				return err
			}
			ev.Fills = fills
		}
	case GrandFinalsReset:
	default:
		if m.WinTargetID != nil {
			fill, err := p.fill(*m.WinTargetID, m.WinTargetRule, winnerID)
			if err != nil {
				return err
			}
			ev.Fills = append(ev.Fills, fill)
		}
		if m.LossTargetID != nil {
			fill, err := p.fill(*m.LossTargetID, m.LossTargetRule, loserID)
			if err != nil {
				return err
			}
			ev.Fills = append(ev.Fills, fill)
		}
	}

	ev.Status = p.g.Status()
	p.events = append(p.events, ev)
	return nil
}

func (p *propagation) fillReset(wbChampion, lbChampion uuid.UUID) ([]SlotFill, error) {
	reset := p.g.reset
	a, err := p.place(reset, SlotA, wbChampion)
	if err != nil {
		return nil, err
	}
	b, err := p.place(reset, SlotB, lbChampion)
	if err != nil {
		return nil, err
	}
	return []SlotFill{a, b}, nil
}

func (p *propagation) fill(targetID uuid.UUID, rule *SlotRule, participantID uuid.UUID) (SlotFill, error) {
	target, ok := p.g.byID[targetID]
	if !ok {
		return SlotFill{}, fmt.Errorf("%w: link to missing match %s", ErrStructuralInvariant, targetID)
	}

	var slot Slot
	switch utils.OrZero(rule) {
	case FixedSlotA:
		slot = SlotA
	case FixedSlotB:
		slot = SlotB
	default:
		switch {
		case target.SlotAID == nil:
			slot = SlotA
		case target.SlotBID == nil:
			slot = SlotB
		default:
			return SlotFill{}, fmt.Errorf("%w: match %s has no empty slot", ErrStructuralInvariant, targetID)
		}
	}

	fill, err := p.place(target, slot, participantID)
	if err != nil {
		return SlotFill{}, err
	}
	p.enqueueIfBye(target)
	return fill, nil
}

func (p *propagation) place(target *Match, slot Slot, participantID uuid.UUID) (SlotFill, error) {
	if target.Occupant(slot) != nil {
		return SlotFill{}, fmt.Errorf("%w: slot %d of match %s is already filled", ErrStructuralInvariant, slot, target.ID)
	}
	if slot == SlotA {
		target.SlotAID = utils.Ptr(participantID)
	} else {
		target.SlotBID = utils.Ptr(participantID)
	}
	p.touched[target.ID] = struct{}{}
	return SlotFill{MatchID: target.ID, Slot: slot, ParticipantID: participantID}, nil
}
