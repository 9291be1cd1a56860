package orders

import (
	"strings"

	pkgerrors "github.com/gocart/storefront/pkg/errors"
)

// Status is an order's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus normalizes a status string.
func ParseStatus(value string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(value)))
	return s, s.IsValid()
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) String() string {
	return string(s)
}

// CanTransition allows only pending -> completed and pending -> cancelled.
func CanTransition(from, to Status) error {
	if from == StatusPending && to.IsTerminal() {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeIllegalTransition, "status transition not allowed").
		WithDetails(map[string]any{"from": string(from), "to": string(to)})
}
