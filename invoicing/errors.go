package invoicing

import "errors"

var (
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidDiscount   = errors.New("invalid discount")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrLineNotFound      = errors.New("line not found")
	ErrNoDebtor          = errors.New("no debtor selected")
	ErrEmptyInvoice      = errors.New("invoice is empty")
	ErrAlreadyConfirmed  = errors.New("invoice already confirmed")
	ErrCommitFailed      = errors.New("commit failed")
	ErrNumberUnavailable = errors.New("next invoice number unavailable")
)

type MessageKind string

const (
	MessageInfo    MessageKind = "info"
	MessageWarning MessageKind = "warning"
	MessageError   MessageKind = "error"
)

// Message is the pending user-facing text left by the last operation.
type Message struct {
	Kind MessageKind `json:"kind"`
	Text string      `json:"text"`
}

// ValidationError carries the message shown to the user. Err is one of the
// sentinels above so callers can branch with errors.Is.
type ValidationError struct {
	Err     error
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }
