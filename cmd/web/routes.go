package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/AdamBeresnev/op-bracket/internal/httputil"
	"github.com/AdamBeresnev/op-bracket/internal/service"
	"github.com/AdamBeresnev/op-bracket/internal/store"
	"github.com/AdamBeresnev/op-bracket/internal/view"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

type tournamentAPI interface {
	CreateTournament(ctx context.Context, name string, inputs []service.ParticipantInput) (*bracket.Tournament, error)
	GetTournamentData(ctx context.Context, id uuid.UUID) (*service.TournamentData, error)
	ListTournaments(ctx context.Context) ([]bracket.Tournament, error)
	DeleteTournament(ctx context.Context, id uuid.UUID) error
	Validate(ctx context.Context, id uuid.UUID) (bracket.Report, error)
	RenameParticipant(ctx context.Context, tournamentID, participantID uuid.UUID, name string) (*bracket.Participant, error)
}

type matchAPI interface {
	GetMatchData(ctx context.Context, matchID uuid.UUID) (*service.MatchData, error)
	ReportResult(ctx context.Context, matchID, winnerID uuid.UUID) (*bracket.Outcome, error)
}

type createTournamentRequest struct {
	Name         string                     `json:"name"`
	Participants []service.ParticipantInput `json:"participants"`
}

type renameParticipantRequest struct {
	Name string `json:"name"`
}

type reportResultRequest struct {
	WinnerID uuid.UUID `json:"winner_id"`
}

type tournamentResponse struct {
	Tournament   *bracket.Tournament   `json:"tournament"`
	Participants []bracket.Participant `json:"participants"`
	Bracket      view.Bracket          `json:"bracket"`
}

type matchResponse struct {
	Match  *bracket.Match       `json:"match"`
	SlotA  *bracket.Participant `json:"slot_a"`
	SlotB  *bracket.Participant `json:"slot_b"`
	Winner *bracket.Participant `json:"winner"`
}

func newRouter(tournaments tournamentAPI, matches matchAPI, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/tournaments", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			list, err := tournaments.ListTournaments(r.Context())
			if err != nil {
				httputil.InternalServerError(w, "Failed to list tournaments", err)
				return
			}
			if list == nil {
				list = []bracket.Tournament{}
			}
			httputil.WriteJSON(w, http.StatusOK, list)
		})

		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var req createTournamentRequest
			if err := httputil.DecodeJSON(r, &req); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}

			tournament, err := tournaments.CreateTournament(r.Context(), req.Name, req.Participants)
			if err != nil {
				writeError(w, "Failed to create tournament", err)
				return
			}
			httputil.WriteJSON(w, http.StatusCreated, tournament)
		})

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				id, ok := parseID(w, r)
				if !ok {
					return
				}

				data, err := tournaments.GetTournamentData(r.Context(), id)
				if err != nil {
					writeError(w, "Failed to get tournament", err)
					return
				}
				httputil.WriteJSON(w, http.StatusOK, tournamentResponse{
					Tournament:   data.Tournament,
					Participants: data.Participants,
					Bracket: view.PrepareBracketData(data.Participants, data.Matches).
						WithChampion(data.Participants, data.Champion, data.NextMatchID),
				})
			})

			r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
				id, ok := parseID(w, r)
				if !ok {
					return
				}

				if err := tournaments.DeleteTournament(r.Context(), id); err != nil {
					writeError(w, "Failed to delete tournament", err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			r.Patch("/participants/{participantID}", func(w http.ResponseWriter, r *http.Request) {
				id, ok := parseID(w, r)
				if !ok {
					return
				}
				participantID, err := uuid.Parse(chi.URLParam(r, "participantID"))
				if err != nil {
					httputil.BadRequest(w, "Invalid participant ID", err)
					return
				}

				var req renameParticipantRequest
				if err := httputil.DecodeJSON(r, &req); err != nil {
					httputil.BadRequest(w, "Invalid request body", err)
					return
				}

				participant, err := tournaments.RenameParticipant(r.Context(), id, participantID, req.Name)
				if err != nil {
					writeError(w, "Failed to rename participant", err)
					return
				}
				httputil.WriteJSON(w, http.StatusOK, participant)
			})

			r.Get("/validate", func(w http.ResponseWriter, r *http.Request) {
				id, ok := parseID(w, r)
				if !ok {
					return
				}

				report, err := tournaments.Validate(r.Context(), id)
				if err != nil {
					writeError(w, "Failed to validate tournament", err)
					return
				}
				if report.Violations == nil {
					report.Violations = []string{}
				}
				httputil.WriteJSON(w, http.StatusOK, map[string]any{
					"valid":      report.Valid(),
					"violations": report.Violations,
				})
			})
		})
	})

	r.Route("/matches/{id}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			id, ok := parseID(w, r)
			if !ok {
				return
			}

			data, err := matches.GetMatchData(r.Context(), id)
			if err != nil {
				writeError(w, "Failed to get match", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, matchResponse{
				Match:  data.Match,
				SlotA:  data.SlotA,
				SlotB:  data.SlotB,
				Winner: data.Winner,
			})
		})

		r.Post("/result", func(w http.ResponseWriter, r *http.Request) {
			id, ok := parseID(w, r)
			if !ok {
				return
			}

			var req reportResultRequest
			if err := httputil.DecodeJSON(r, &req); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			if req.WinnerID == uuid.Nil {
				httputil.BadRequest(w, "winner_id is required", nil)
				return
			}

			outcome, err := matches.ReportResult(r.Context(), id, req.WinnerID)
			if err != nil {
				writeError(w, "Failed to report result", err)
				return
			}
			if outcome.Events == nil {
				outcome.Events = []bracket.MatchCompleted{}
			}
			if outcome.Fills == nil {
				outcome.Fills = []bracket.SlotFill{}
			}
			httputil.WriteJSON(w, http.StatusOK, outcome)
		})
	})

	return r
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.BadRequest(w, "Invalid ID", err)
		return uuid.Nil, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, service.ErrTournamentNotFound),
		errors.Is(err, service.ErrParticipantNotFound),
		errors.Is(err, bracket.ErrMatchNotFound):
		httputil.NotFound(w, msg, err)
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, bracket.ErrInvalidParticipantCount),
		errors.Is(err, bracket.ErrNotReady),
		errors.Is(err, bracket.ErrInvalidWinner):
		httputil.BadRequest(w, msg, err)
	case errors.Is(err, bracket.ErrConflictingResult), errors.Is(err, store.ErrVersionConflict):
		httputil.Conflict(w, msg, err)
	default:
		httputil.InternalServerError(w, msg, err)
	}
}
