package db

import "errors"

var (
	// ErrNotFound is returned when no debate or user matches the query.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyParticipant is returned when a user tries to join a debate
	// they are already enrolled in.
	ErrAlreadyParticipant = errors.New("already joined as participant")
	// ErrAlreadyObserving is returned when a user tries to observe a debate
	// they already observe.
	ErrAlreadyObserving = errors.New("already observing this debate")
	// ErrDebateFinished is returned when a mutation targets a finished debate.
	ErrDebateFinished = errors.New("debate has ended")
	// ErrTeamFull is returned when a join would exceed the team's capacity.
	ErrTeamFull = errors.New("team is full")
	// ErrDuplicateEmail is returned when signing up with an email that is
	// already registered.
	ErrDuplicateEmail = errors.New("email already exists")
)
