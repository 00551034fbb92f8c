package query

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrInvalidAttribute   = errors.New("invalid attribute")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateOrInvalid = errors.New("duplicate or invalid")
	ErrUpdateFailed       = errors.New("update failed")
	ErrInUseOrInvalid     = errors.New("in use or invalid")
)

// Error carries one of the sentinel kinds above together with the entity it
// concerns and the message shown to clients.
type Error struct {
	Kind    error
	Entity  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Public returns the message without the underlying cause.
func (e *Error) Public() string { return e.Message }

func invalidAttribute(entity, field string) error {
	return &Error{
		Kind:    ErrInvalidAttribute,
		Entity:  entity,
		Message: fmt.Sprintf("Invalid attribute for %s: %s", entity, field),
	}
}

func notFound(entity, custom string, cause error) error {
	msg := custom
	if msg == "" {
		msg = entity + " not found"
	}
	return &Error{Kind: ErrNotFound, Entity: entity, Message: msg, Err: cause}
}

func duplicateOrInvalid(entity string, cause error) error {
	return &Error{
		Kind:    ErrDuplicateOrInvalid,
		Entity:  entity,
		Message: fmt.Sprintf("Cannot create %s, possible duplicate or invalid attributes", entity),
		Err:     cause,
	}
}

func updateFailed(entity string, cause error) error {
	return &Error{
		Kind:    ErrUpdateFailed,
		Entity:  entity,
		Message: entity + " update failed",
		Err:     cause,
	}
}

func inUseOrInvalid(entity string, cause error) error {
	return &Error{
		Kind:    ErrInUseOrInvalid,
		Entity:  entity,
		Message: fmt.Sprintf("Cannot delete this %s, check if it's still in use", entity),
		Err:     cause,
	}
}

// IsIntegrityViolation reports whether the store refused a write on a
// constraint (SQLSTATE class 23) or on malformed data (class 22).
func IsIntegrityViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || len(pgErr.Code) < 2 {
		return false
	}
	class := pgErr.Code[:2]
	return class == "23" || class == "22"
}

// IsForeignKeyViolation reports SQLSTATE 23503.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
