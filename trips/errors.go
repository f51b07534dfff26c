package trips

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrNotFound matches every *NotFoundError.
var ErrNotFound = errors.New("not found")

type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Collection, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func (e *NotFoundError) HTTPStatus() int { return http.StatusNotFound }

// AccessError is returned before any write when the actor may not touch the
// target record.
type AccessError struct {
	Actor      string
	Action     string
	Collection string
	ID         string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("forbidden: actor %q cannot %s %s %q", e.Actor, e.Action, e.Collection, e.ID)
}

func (e *AccessError) HTTPStatus() int { return http.StatusForbidden }

// RejectedError carries a storage-level validation failure, such as a
// relation pointing at a record that does not exist, verbatim.
type RejectedError struct {
	Err error
}

func (e *RejectedError) Error() string { return e.Err.Error() }

func (e *RejectedError) Unwrap() error { return e.Err }

func (e *RejectedError) HTTPStatus() int { return http.StatusUnprocessableEntity }

// storageError classifies errors coming back from PocketBase.
func storageError(collection, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &NotFoundError{Collection: collection, ID: id}
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return &RejectedError{Err: err}
	}
	return err
}
