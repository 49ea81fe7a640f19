package anki

import (
	"errors"
	"fmt"
)

// ErrDuplicate means the store refused the note under duplicate
// suppression (AnkiConnect answers addNote with a null result).
var ErrDuplicate = errors.New("card was not created (likely a duplicate)")

// ConnectivityError means the AnkiConnect endpoint could not be reached
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("cannot reach AnkiConnect: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// StoreError wraps an error string reported by the store itself
type StoreError struct {
	Action  string
	Message string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("AnkiConnect %s error: %s", e.Action, e.Message)
}
