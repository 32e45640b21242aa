package bracket

import (
	"time"

	"github.com/google/uuid"
)

type Segment string

const (
	WinnersBracket   Segment = "winners"
	LosersBracket    Segment = "losers"
	GrandFinals      Segment = "grand_finals"
	GrandFinalsReset Segment = "grand_finals_reset"
)

// Rank orders segments the way a bracket is read: winners, losers, finals, reset.
func (s Segment) Rank() int {
	switch s {
	case WinnersBracket:
		return 0
	case LosersBracket:
		return 1
	case GrandFinals:
		return 2
	case GrandFinalsReset:
		return 3
	}
	return 4
}

type Slot int

const (
	SlotA Slot = 1
	SlotB Slot = 2
)

// SlotRule decides which slot of a target match an arriving participant takes.
type SlotRule string

const (
	FirstEmptySlot SlotRule = "first_empty"
	FixedSlotA     SlotRule = "slot_a"
	FixedSlotB     SlotRule = "slot_b"
)

type MatchState string

const (
	StatePending   MatchState = "pending"
	StateReady     MatchState = "ready"
	StateCompleted MatchState = "completed"
)

type Match struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`

	// Position in the bracket, round is 1-based and order 0-based per segment
	Segment Segment `db:"segment" json:"segment"`
	Round   int     `db:"round_number" json:"round"`
	Order   int     `db:"match_order" json:"order"`

	SlotAID  *uuid.UUID `db:"slot_a_id" json:"slot_a_id"`
	SlotBID  *uuid.UUID `db:"slot_b_id" json:"slot_b_id"`
	WinnerID *uuid.UUID `db:"winner_id" json:"winner_id"`

	WinTargetID   *uuid.UUID `db:"win_target_id" json:"win_target_id,omitempty"`
	WinTargetRule *SlotRule  `db:"win_target_rule" json:"win_target_rule,omitempty"`

	LossTargetID   *uuid.UUID `db:"loss_target_id" json:"loss_target_id,omitempty"`
	LossTargetRule *SlotRule  `db:"loss_target_rule" json:"loss_target_rule,omitempty"`

	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"-"`
}

func (m *Match) State() MatchState {
	switch {
	case m.WinnerID != nil:
		return StateCompleted
	case m.SlotAID != nil && m.SlotBID != nil:
		return StateReady
	default:
		return StatePending
	}
}

func (m *Match) Occupant(slot Slot) *uuid.UUID {
	if slot == SlotA {
		return m.SlotAID
	}
	return m.SlotBID
}

func (m *Match) HasParticipant(id uuid.UUID) bool {
	return (m.SlotAID != nil && *m.SlotAID == id) || (m.SlotBID != nil && *m.SlotBID == id)
}

// Opponent returns the other occupant. Only meaningful when id is in the match.
func (m *Match) Opponent(id uuid.UUID) uuid.UUID {
	if m.SlotAID != nil && *m.SlotAID == id {
		if m.SlotBID == nil {
			return uuid.Nil
		}
		return *m.SlotBID
	}
	if m.SlotAID == nil {
		return uuid.Nil
	}
	return *m.SlotAID
}

// LoserID is the non-winning occupant of a completed match.
func (m *Match) LoserID() *uuid.UUID {
	if m.WinnerID == nil {
		return nil
	}
	loser := m.Opponent(*m.WinnerID)
	return &loser
}

func (m *Match) IsTerminal() bool {
	return m.Segment == GrandFinals || m.Segment == GrandFinalsReset
}

// SlotFill is one participant placed into one slot downstream of a result.
type SlotFill struct {
	MatchID       uuid.UUID `json:"match_id"`
	Slot          Slot      `json:"slot"`
	ParticipantID uuid.UUID `json:"participant_id"`
}
