// Package errs defines the typed faults returned by the combat engine and
// its stores. The calling layer maps them to user-facing messages by Kind.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a fault.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindState
	KindResource
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindResource:
		return "resource"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is a classified engine fault. Two errors match under errors.Is
// when their codes are equal, so sentinels can be wrapped with detail.
type Error struct {
	Kind Kind
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinels.
var (
	ErrValidation           = &Error{Kind: KindValidation, Code: "validation", Msg: "invalid request"}
	ErrAlreadyInBattle      = &Error{Kind: KindState, Code: "already_in_battle", Msg: "actor is already in battle"}
	ErrNotYourTurn          = &Error{Kind: KindState, Code: "not_your_turn", Msg: "it is not the actor's turn"}
	ErrBattleNotFound       = &Error{Kind: KindState, Code: "battle_not_found", Msg: "battle not found"}
	ErrConflict             = &Error{Kind: KindState, Code: "conflict", Msg: "battle was modified concurrently"}
	ErrInsufficientResource = &Error{Kind: KindResource, Code: "insufficient_resource", Msg: "not enough mp"}
	ErrNoOpponentsAvailable = &Error{Kind: KindNotFound, Code: "no_opponents", Msg: "no opponents available here"}
	ErrActorNotFound        = &Error{Kind: KindNotFound, Code: "actor_not_found", Msg: "actor not found"}
	ErrTemplateNotFound     = &Error{Kind: KindNotFound, Code: "template_not_found", Msg: "opponent template not found"}
	ErrInternal             = &Error{Kind: KindInternal, Code: "internal", Msg: "internal error"}
)

// With returns a copy of the sentinel carrying a more specific message.
func With(sentinel *Error, format string, args ...any) *Error {
	return &Error{
		Kind: sentinel.Kind,
		Code: sentinel.Code,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// Validation reports malformed input.
func Validation(format string, args ...any) *Error {
	return With(ErrValidation, format, args...)
}

// Internal wraps a storage or other unexpected fault. Errors that are
// already classified pass through unchanged.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindInternal, Code: ErrInternal.Code, Msg: ErrInternal.Msg, Err: err}
}

// KindOf classifies any error. Unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
