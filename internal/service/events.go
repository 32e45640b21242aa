package service

import (
	"context"
	"log/slog"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/google/uuid"
)

// EventSink receives the completion events of every committed report.
type EventSink interface {
	Publish(ctx context.Context, tournamentID uuid.UUID, events []bracket.MatchCompleted)
}

// LogSink writes each event as a structured log line.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Publish(ctx context.Context, tournamentID uuid.UUID, events []bracket.MatchCompleted) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, ev := range events {
		logger.InfoContext(ctx, "match completed",
			"tournament_id", tournamentID,
			"match_id", ev.MatchID,
			"winner_id", ev.WinnerID,
			"loser_id", ev.LoserID,
			"fills", len(ev.Fills),
			"auto_resolved", ev.AutoResolved,
			"status", ev.Status,
		)
	}
}
