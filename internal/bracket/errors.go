package bracket

import "errors"

var (
	ErrInvalidParticipantCount = errors.New("at least two real participants are required")
	ErrGenerationInvariant     = errors.New("generated bracket failed validation")

	ErrMatchNotFound     = errors.New("match not found")
	ErrNotReady          = errors.New("match is not ready, a slot is still empty")
	ErrInvalidWinner     = errors.New("winner is not part of this match")
	ErrConflictingResult = errors.New("match already completed with a different winner")

	// Means the generator produced a broken graph, never recoverable at runtime
	ErrStructuralInvariant = errors.New("bracket structure is corrupt")
)
