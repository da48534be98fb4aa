package belote

import "errors"

// Rejected actions. They are logged and dropped, never returned to callers.
var (
	ErrWrongPhase          = errors.New("action not allowed in current phase")
	ErrOutOfTurn           = errors.New("action out of turn")
	ErrUnknownConnection   = errors.New("unknown connection")
	ErrUnknownCard         = errors.New("card not in hand")
	ErrResolving           = errors.New("trick resolution pending")
	ErrNotEnoughPlayers    = errors.New("need 4 seated players")
	ErrInvalidBid          = errors.New("invalid bid action")
	ErrMissingSuit         = errors.New("take in second round requires a suit")
	ErrForbiddenSuit       = errors.New("turned card suit cannot be chosen in second round")
	ErrAlreadyDeclared     = errors.New("announcements already declared this round")
	ErrAnnouncementsClosed = errors.New("announcements already adjudicated")
	ErrNotHuman            = errors.New("seat is not controlled by a human")
)

type InvariantError string

func (e InvariantError) Error() string { return "invariant violated: " + string(e) }
