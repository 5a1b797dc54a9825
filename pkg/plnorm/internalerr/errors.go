package internalerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrConfig         = errors.New("configuration error")
	ErrNotLoaded      = errors.New("dataset is not loaded")
	ErrLemmaLookup    = errors.New("lemma lookup failed")
	ErrUnknownColumn  = errors.New("unknown column")
	ErrLengthMismatch = errors.New("column length mismatch")
	ErrInvalidInput   = errors.New("invalid input")
)

// StageError locates a failure inside a transform run.
// Row is -1 when the failure is not tied to a single cell.
type StageError struct {
	Stage  string
	Column string
	Row    int
	Token  string
	Err    error
}

func (e *StageError) Error() string {
	switch {
	case e.Row < 0:
		return fmt.Sprintf("stage %s, column %q: %v", e.Stage, e.Column, e.Err)
	case e.Token != "":
		return fmt.Sprintf("stage %s, column %q, row %d, token %q: %v", e.Stage, e.Column, e.Row, e.Token, e.Err)
	default:
		return fmt.Sprintf("stage %s, column %q, row %d: %v", e.Stage, e.Column, e.Row, e.Err)
	}
}

func (e *StageError) Unwrap() error { return e.Err }

// TokenError is returned by per-cell transforms that fail on one token.
type TokenError struct {
	Token string
	Err   error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("token %q: %v", e.Token, e.Err)
}

func (e *TokenError) Unwrap() error { return e.Err }
