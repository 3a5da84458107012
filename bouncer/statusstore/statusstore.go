package statusstore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type UserStatus string

const (
	StatusPending  UserStatus = "pending"
	StatusBanned   UserStatus = "banned"
	StatusService  UserStatus = "service"
	StatusOrganic  UserStatus = "organic"
	StatusPurged   UserStatus = "purged"
	StatusRetired  UserStatus = "retired"
	StatusDeclined UserStatus = "declined"
	StatusInactive UserStatus = "inactive"
)

var ErrIllegalTransition = errors.New("illegal status transition")

// Terminal statuses never transition again, with one exception: a banned
// account which later becomes unreachable moves to retired.
func (s UserStatus) Terminal() bool {
	return s != StatusPending
}

// CanTransition reports whether moving from one status to another is legal.
// Setting the same status again is always allowed (idempotent writes).
func CanTransition(from, to UserStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case "", StatusPending:
		switch to {
		case StatusBanned, StatusOrganic, StatusService, StatusDeclined, StatusPurged, StatusInactive:
			return true
		}
	case StatusBanned:
		return to == StatusRetired
	}
	return false
}

// One classification record per username.
type Record struct {
	Username   string
	Status     UserStatus
	Reason     string
	Evaluator  string
	ReportedAt time.Time
	UpdatedAt  time.Time
}

type StatusStore interface {
	// Get returns the record for a username, or nil if the account has never
	// been tracked.
	Get(ctx context.Context, username string) (*Record, error)
	// Set applies a status transition, enforcing CanTransition. The first
	// write for a username stamps ReportedAt.
	Set(ctx context.Context, username string, status UserStatus, reason, evaluator string) error
	// Override applies a status without transition checks. Reserved for
	// operator feedback, which outranks the state machine.
	Override(ctx context.Context, username string, status UserStatus, reason string) error
	// ListByStatus returns usernames currently holding the given status.
	ListByStatus(ctx context.Context, status UserStatus) ([]string, error)
}

func transitionErr(username string, from, to UserStatus) error {
	return fmt.Errorf("%w: %s: %s -> %s", ErrIllegalTransition, username, from, to)
}
