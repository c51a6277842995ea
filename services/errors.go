package services

import "errors"

// Sentinel errors shared across services and mapped to HTTP statuses at the
// handler boundary. Named, human-readable reasons rather than opaque codes.
var (
	// Not-found
	ErrNotFound            = errors.New("requested resource not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrInscriptionNotFound = errors.New("inscription not found")
	ErrMatchNotFound       = errors.New("match not found")

	// Validation and business rules
	ErrValidationFailed           = errors.New("validation failed")
	ErrPasswordTooShort           = errors.New("password is too short")
	ErrTournamentNameRequired     = errors.New("tournament name is required")
	ErrTournamentInvalidFormat    = errors.New("invalid tournament format provided")
	ErrTournamentInvalidDateRange = errors.New("tournament end date must be after start date")
	ErrTournamentInvalidDeadline  = errors.New("registration deadline must be before the start date")
	ErrTournamentInvalidCapacity  = errors.New("tournament max participants must be positive")

	// Tournament state machine
	ErrTournamentInvalidStatus           = errors.New("invalid tournament status provided")
	ErrTournamentInvalidStatusTransition = errors.New("invalid tournament status transition")
	ErrTournamentNotOngoing              = errors.New("tournament is not ongoing")
	ErrTournamentNotEnoughParticipants   = errors.New("tournament needs at least 4 inscriptions to start")
	ErrTournamentFrozen                  = errors.New("finished or cancelled tournaments cannot be modified")
	ErrTournamentEditRestricted          = errors.New("only description and end date can change while the tournament is ongoing")
	ErrTournamentEndDateShortened        = errors.New("end date of an ongoing tournament can only be extended")
	ErrTournamentFormatFrozen            = errors.New("tournament format cannot change once inscriptions exist")
	ErrTournamentCapacityBelowCount      = errors.New("max participants cannot drop below current inscription count")
	ErrTournamentDeleteOngoing           = errors.New("ongoing tournaments must be cancelled or finished before deletion")
	ErrTournamentDeleteFinished          = errors.New("finished tournaments are kept for history and cannot be deleted")

	// Inscriptions
	ErrInscriptionConflict       = errors.New("user is already inscribed in this tournament")
	ErrInscriptionClosed         = errors.New("inscriptions are only accepted while the tournament is upcoming")
	ErrInscriptionDeadlinePassed = errors.New("registration deadline has passed")
	ErrInscriptionCapacityFull   = errors.New("tournament has reached its participant cap")

	// Rounds and pairing
	ErrRoundNotEnoughPlayers  = errors.New("at least 2 inscriptions are required to generate a round")
	ErrRoundLimitReached      = errors.New("all configured rounds have already been generated")
	ErrRoundPriorRoundPending = errors.New("previous round still has unfinished matches")

	// Matches
	ErrMatchSamePlayer         = errors.New("a match needs two distinct players")
	ErrMatchInvalidRound       = errors.New("match round must be at least 1")
	ErrMatchPlayerNotInscribed = errors.New("both players must be inscribed in the tournament")
	ErrMatchAlreadyFinished    = errors.New("match already has a terminal result")
	ErrMatchInvalidResult      = errors.New("invalid match result provided")
	ErrMatchResultBackwards    = errors.New("match result can only move forward")
	ErrMatchDeleteStarted      = errors.New("only matches that have not started can be deleted")

	// Conflicts
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrTournamentNameConflict = errors.New("tournament name already exists for this creator")

	// Authentication and authorization
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
)
