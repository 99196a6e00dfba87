package services

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error classes surfaced to the HTTP boundary. Wrap them with fmt.Errorf("%w: ...")
// so the handler can map the class while keeping a readable message.
var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("already exists")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Message returns the client-facing part of a service error: the text after the class prefix.
func Message(err error) string {
	var msg *messageError
	if errors.As(err, &msg) {
		return msg.message
	}
	return err.Error()
}

type messageError struct {
	class   error
	message string
}

func (e *messageError) Error() string { return e.class.Error() + ": " + e.message }
func (e *messageError) Unwrap() error { return e.class }

func newError(class error, format string, args ...interface{}) error {
	return &messageError{class: class, message: fmt.Sprintf(format, args...)}
}

// parseID treats malformed identifiers as absent entities.
func parseID(id, entity string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, newError(ErrNotFound, "%s not found", entity)
	}
	return oid, nil
}
