package autosign

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the generator and the file driver. Callers match
// them with errors.Is; every returned error wraps exactly one of them.
var (
	// ErrInput reports a missing, unreadable or malformed input file.
	ErrInput = errors.New("input error")
	// ErrEmptyHostname is an ErrInput raised when no hostname is supplied.
	ErrEmptyHostname = fmt.Errorf("%w: hostname is empty", ErrInput)
	// ErrInvalidAddress reports a token that is not an IPv4 or IPv6 literal.
	ErrInvalidAddress = errors.New("invalid IP address")
	// ErrCrypto reports a key generation, signing or encoding failure.
	ErrCrypto = errors.New("crypto failure")
	// ErrOutput reports an unwritable output directory or a failed write.
	ErrOutput = errors.New("output error")
)
