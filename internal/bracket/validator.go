package bracket

import (
	"errors"
	"fmt"

	"github.com/dominikbraun/graph"
	"github.com/google/uuid"
)

type Report struct {
	Violations []string `json:"violations"`
}

func (r Report) Valid() bool {
	return len(r.Violations) == 0
}

// Err joins every violation under ErrGenerationInvariant, nil when valid.
func (r Report) Err() error {
	if r.Valid() {
		return nil
	}
	errs := make([]error, 0, len(r.Violations)+1)
	errs = append(errs, ErrGenerationInvariant)
	for _, v := range r.Violations {
		errs = append(errs, errors.New(v))
	}
	return errors.Join(errs...)
}

func (r *Report) addf(format string, args ...any) {
	r.Violations = append(r.Violations, fmt.Sprintf(format, args...))
}

type roundKey struct {
	segment Segment
	round   int
}

// Validate checks match counts against the formulas and that every link resolves,
// the links form no cycle and every non-terminal match can reach grand finals.
// All violations are collected.
func Validate(size int, matches []Match) Report {
	var report Report

	if !IsPowerOfTwo(size) || size < 2 {
		report.addf("participant count %d is not a power of two", size)
	}

	perSegment := make(map[Segment]int)
	perRound := make(map[roundKey]int)
	byID := make(map[uuid.UUID]*Match, len(matches))
	for i := range matches {
		m := &matches[i]
		perSegment[m.Segment]++
		perRound[roundKey{m.Segment, m.Round}]++
		if _, dup := byID[m.ID]; dup {
			report.addf("duplicate match id %s", m.ID)
		}
		byID[m.ID] = m
	}

	if got := perSegment[WinnersBracket]; got != size-1 {
		report.addf("winners bracket should have %d matches, found %d", size-1, got)
	}
	if got := perSegment[LosersBracket]; got != size-2 {
		report.addf("losers bracket should have %d matches, found %d", size-2, got)
	}
	if got := perSegment[GrandFinals]; got != 1 {
		report.addf("expected exactly one grand finals match, found %d", got)
	}
	if got := perSegment[GrandFinalsReset]; got != 1 {
		report.addf("expected exactly one grand finals reset match, found %d", got)
	}

	if IsPowerOfTwo(size) {
		checkRounds(&report, perRound, WinnersBracket, WinnersRounds(size), func(r int) int {
			return WinnersMatchesInRound(size, r)
		})
		checkRounds(&report, perRound, LosersBracket, LosersRounds(size), func(r int) int {
			return LosersMatchesInRound(size, r)
		})
	}

	checkLinks(&report, matches, byID)
	return report
}

func checkRounds(report *Report, perRound map[roundKey]int, segment Segment, rounds int, expected func(int) int) {
	for r := 1; r <= rounds; r++ {
		if got, want := perRound[roundKey{segment, r}], expected(r); got != want {
			report.addf("%s round %d should have %d matches, found %d", segment, r, want, got)
		}
	}
	for key, got := range perRound {
		if key.segment == segment && (key.round < 1 || key.round > rounds) {
			report.addf("%s has %d matches in unexpected round %d", segment, got, key.round)
		}
	}
}

func matchHash(m *Match) uuid.UUID {
	return m.ID
}

// checkLinks walks every link once. Cycles are found with one strongly connected
// components pass and reachability with one traversal from grand finals over the
// reversed links.
func checkLinks(report *Report, matches []Match, byID map[uuid.UUID]*Match) {
	links := graph.New(matchHash, graph.Directed())
	reversed := graph.New(matchHash, graph.Directed())

	var finals *Match
	for i := range matches {
		m := &matches[i]
		_ = links.AddVertex(m)
		_ = reversed.AddVertex(m)
		if m.Segment == GrandFinals {
			finals = m
		}
	}

	addLink := func(from *Match, to *uuid.UUID, kind string) {
		if _, ok := byID[*to]; !ok {
			report.addf("%s %d/%d %s target %s does not exist", from.Segment, from.Round, from.Order, kind, *to)
			return
		}
		if *to == from.ID {
			report.addf("%s %d/%d %s link points at itself", from.Segment, from.Round, from.Order, kind)
			return
		}
		_ = links.AddEdge(from.ID, *to)
		_ = reversed.AddEdge(*to, from.ID)
	}

	for i := range matches {
		m := &matches[i]
		if m.IsTerminal() {
			if m.WinTargetID != nil || m.LossTargetID != nil {
				report.addf("%s must not have downstream targets", m.Segment)
			}
			continue
		}

		if m.WinTargetID == nil {
			report.addf("%s %d/%d has no on-win target", m.Segment, m.Round, m.Order)
		} else {
			addLink(m, m.WinTargetID, "on-win")
		}

		switch {
		case m.Segment == WinnersBracket && m.LossTargetID == nil:
			report.addf("%s %d/%d has no on-loss target", m.Segment, m.Round, m.Order)
		case m.Segment == WinnersBracket:
			addLink(m, m.LossTargetID, "on-loss")
		case m.LossTargetID != nil:
			report.addf("%s %d/%d must eliminate its loser", m.Segment, m.Round, m.Order)
		}
	}

	components, err := graph.StronglyConnectedComponents(links)
	if err != nil {
		report.addf("failed to inspect match links: %v", err)
	}
	for _, component := range components {
		if len(component) > 1 {
			m := byID[component[0]]
			report.addf("match links contain a cycle through %s %d/%d", m.Segment, m.Round, m.Order)
		}
	}

	if finals == nil {
		return
	}
	reaches := make(map[uuid.UUID]bool, len(matches))
	_ = graph.BFS(reversed, finals.ID, func(id uuid.UUID) bool {
		reaches[id] = true
		return false
	})
	for i := range matches {
		m := &matches[i]
		if !m.IsTerminal() && !reaches[m.ID] {
			report.addf("%s %d/%d cannot reach grand finals", m.Segment, m.Round, m.Order)
		}
	}
}
