package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/AdamBeresnev/op-bracket/internal/store"
	"github.com/AdamBeresnev/op-bracket/internal/utils"
	"github.com/google/uuid"
)

type MatchService struct {
	repo  Repository
	sink  EventSink
	locks *tournamentLocks
}

func NewMatchService(repo Repository, sink EventSink) *MatchService {
	if sink == nil {
		sink = LogSink{}
	}
	return &MatchService{repo: repo, sink: sink, locks: newTournamentLocks()}
}

type MatchData struct {
	Match  *bracket.Match
	SlotA  *bracket.Participant
	SlotB  *bracket.Participant
	Winner *bracket.Participant
}

func (s *MatchService) GetMatchData(ctx context.Context, matchID uuid.UUID) (*MatchData, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	participants, err := s.repo.LoadParticipants(ctx, match.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	byID := make(map[uuid.UUID]bracket.Participant, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
	}
	lookup := func(id *uuid.UUID) *bracket.Participant {
		if id == nil {
			return nil
		}
		if p, ok := byID[*id]; ok {
			return &p
		}
		return nil
	}

	return &MatchData{
		Match:  match,
		SlotA:  lookup(match.SlotAID),
		SlotB:  lookup(match.SlotBID),
		Winner: lookup(match.WinnerID),
	}, nil
}

// ReportResult records a result and commits it together with every bye it resolves.
// Reports against one tournament are serialized, the store's version check guards
// against writers outside this process.
func (s *MatchService) ReportResult(ctx context.Context, matchID, winnerID uuid.UUID) (*bracket.Outcome, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	tournamentID := match.TournamentID

	unlock := s.locks.lock(tournamentID)
	defer unlock()

	tournament, err := s.repo.GetTournament(ctx, tournamentID)
	if errors.Is(err, sql.ErrNoRows) {
		// Deleted after the match was looked up
		return nil, fmt.Errorf("%w: %s", ErrTournamentNotFound, tournamentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	participants, err := s.repo.LoadParticipants(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	matches, err := s.repo.LoadMatches(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}

	g, err := bracket.NewGraph(tournamentID, participants, matches)
	if err != nil {
		return nil, err
	}

	outcome, err := g.ReportResult(matchID, winnerID)
	if err != nil {
		return nil, err
	}
	if outcome.Replayed {
		return outcome, nil
	}

	commit := store.Commit{
		TournamentID:    tournamentID,
		ExpectedVersion: tournament.Version,
		Updates:         outcome.Updated,
	}
	if outcome.Status != tournament.Status {
		commit.Status = utils.Ptr(outcome.Status)
	}
	if err := s.repo.Commit(ctx, commit); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "result reported",
		"tournament_id", tournamentID,
		"match_id", matchID,
		"winner_id", winnerID,
		"auto_resolved", len(outcome.Events)-1,
	)
	if outcome.Status == bracket.TournamentCompleted {
		slog.InfoContext(ctx, "tournament completed",
			"tournament_id", tournamentID,
			"champion_id", utils.OrZero(outcome.Champion),
		)
	}

	s.sink.Publish(ctx, tournamentID, outcome.Events)
	return outcome, nil
}

func (s *MatchService) getMatch(ctx context.Context, matchID uuid.UUID) (*bracket.Match, error) {
	match, err := s.repo.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", bracket.ErrMatchNotFound, matchID)
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}
