package ledger

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// NetworkErrorMessage is shown when a request failed without a server response.
const NetworkErrorMessage = "Network error: could not reach the server"

var (
	// ErrSameAccount is returned for a transfer into its own source account.
	ErrSameAccount = errors.New("source and destination accounts must differ")
	// ErrMissingField is returned when a required input is empty.
	ErrMissingField = errors.New("required")
	// ErrInvalidType is returned for an unknown or disallowed transaction type.
	ErrInvalidType = errors.New("invalid transaction type")
	// ErrReservedCategory is returned when a user tries to manage the transfer category.
	ErrReservedCategory = errors.New("category is reserved for transfers")
)

// ValidationError is bad local input. It is raised before any network call,
// so nothing needs to be rolled back.
type ValidationError struct {
	Err   error
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is makes every ValidationError match common.ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == common.ErrValidation
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// FailureKind tells a rejected request apart from one that never got an answer.
type FailureKind int

const (
	// KindServer is a non-2xx response; the message is the server's text.
	KindServer FailureKind = iota + 1
	// KindNetwork is a transport failure; the message is generic.
	KindNetwork
)

func (k FailureKind) String() string {
	switch k {
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	}
	return "unknown"
}

// MutationError is returned by coordinator operations whose remote call failed.
// Any optimistic change has already been rolled back when it is returned.
type MutationError struct {
	Err     error
	ID      model.ID
	Op      string
	Message string
	Kind    FailureKind
}

func (e *MutationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.ID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// classify maps a remote error onto the failure taxonomy and the message to show.
func classify(err error) (FailureKind, string) {
	var statusErr *service.StatusError
	if errors.As(err, &statusErr) {
		msg := statusErr.Message
		if msg == "" {
			msg = http.StatusText(statusErr.Status)
		}
		return KindServer, msg
	}
	if errors.Is(err, context.Canceled) {
		return KindNetwork, "Request canceled"
	}
	return KindNetwork, NetworkErrorMessage
}
