package view

import (
	"sort"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/google/uuid"
)

type Slot struct {
	ParticipantID *uuid.UUID `json:"participant_id"`
	Name          string     `json:"name"`
	Seed          int        `json:"seed,omitempty"`
	IsBye         bool       `json:"is_bye,omitempty"`
	Winner        bool       `json:"winner,omitempty"`
}

type Match struct {
	ID     uuid.UUID          `json:"id"`
	Order  int                `json:"order"`
	State  bracket.MatchState `json:"state"`
	SlotA  Slot               `json:"slot_a"`
	SlotB  Slot               `json:"slot_b"`
	WinsTo *uuid.UUID         `json:"wins_to,omitempty"`
	LoseTo *uuid.UUID         `json:"loses_to,omitempty"`
}

type Round struct {
	Number  int     `json:"number"`
	Matches []Match `json:"matches"`
}

type Bracket struct {
	Winners     []Round    `json:"winners"`
	Losers      []Round    `json:"losers"`
	Finals      []Round    `json:"finals"`
	Champion    *Slot      `json:"champion,omitempty"`
	NextMatchID *uuid.UUID `json:"next_match_id,omitempty"`
}

// PrepareBracketData groups matches by segment and round, sorted by order, with
// participant names resolved.
func PrepareBracketData(participants []bracket.Participant, matches []bracket.Match) Bracket {
	participantMap := make(map[uuid.UUID]bracket.Participant, len(participants))
	for _, p := range participants {
		participantMap[p.ID] = p
	}

	wbRounds := make(map[int][]Match)
	lbRounds := make(map[int][]Match)
	finalRounds := make(map[int][]Match)

	for _, m := range matches {
		vm := Match{
			ID:     m.ID,
			Order:  m.Order,
			State:  m.State(),
			SlotA:  slot(participantMap, m.SlotAID, m.WinnerID),
			SlotB:  slot(participantMap, m.SlotBID, m.WinnerID),
			WinsTo: m.WinTargetID,
			LoseTo: m.LossTargetID,
		}

		switch m.Segment {
		case bracket.WinnersBracket:
			wbRounds[m.Round] = append(wbRounds[m.Round], vm)
		case bracket.LosersBracket:
			lbRounds[m.Round] = append(lbRounds[m.Round], vm)
		case bracket.GrandFinals, bracket.GrandFinalsReset:
			finalRounds[m.Round] = append(finalRounds[m.Round], vm)
		}
	}

	return Bracket{
		Winners: sortRounds(wbRounds),
		Losers:  sortRounds(lbRounds),
		Finals:  sortRounds(finalRounds),
	}
}

// WithChampion resolves the champion and next match for a tournament view.
func (b Bracket) WithChampion(participants []bracket.Participant, champion, nextMatchID *uuid.UUID) Bracket {
	if champion != nil {
		participantMap := make(map[uuid.UUID]bracket.Participant, len(participants))
		for _, p := range participants {
			participantMap[p.ID] = p
		}
		s := slot(participantMap, champion, champion)
		b.Champion = &s
	}
	b.NextMatchID = nextMatchID
	return b
}

func slot(participants map[uuid.UUID]bracket.Participant, id, winnerID *uuid.UUID) Slot {
	if id == nil {
		return Slot{}
	}
	p := participants[*id]
	return Slot{
		ParticipantID: id,
		Name:          p.Name,
		Seed:          p.Seed,
		IsBye:         p.IsBye,
		Winner:        winnerID != nil && *winnerID == *id,
	}
}

func sortRounds(rounds map[int][]Match) []Round {
	roundNums := make([]int, 0, len(rounds))
	for r := range rounds {
		roundNums = append(roundNums, r)
	}
	sort.Ints(roundNums)

	out := make([]Round, 0, len(roundNums))
	for _, r := range roundNums {
		ms := rounds[r]
		sort.Slice(ms, func(i, j int) bool {
			return ms[i].Order < ms[j].Order
		})
		out = append(out, Round{Number: r, Matches: ms})
	}
	return out
}
