package types

import "fmt"

// Error taxonomy for the message-to-transaction pipeline. Each stage fails
// with exactly one of these; the response router maps them to bounded
// user-facing diagnostics.

// ConfigurationError is fatal: the process cannot serve requests at all.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s", e.Reason)
}

// EncodingError means a note payload cannot fit the byte budget even with an
// empty text field. It aborts the affected message only.
type EncodingError struct {
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding: %s", e.Reason)
}

// SigningError means the signer could not produce a clean hex payload for the
// descriptor. Never swallowed; reported opaquely to the user.
type SigningError struct {
	Reason string
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing: %s", e.Reason)
}

// RejectionError carries the node's stated reason for refusing a transaction.
// The fate is negatively confirmed, unlike a timeout.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("rejected by node: %s", e.Reason)
}
