package gwerr

import (
	"errors"
	"fmt"
)

// Error kinds
var (
	ErrConfiguration         = errors.New("configuration error")
	ErrEncoding              = errors.New("encoding error")
	ErrTransport             = errors.New("transport error")
	ErrSignatureVerification = errors.New("signature verification failed")
)

// Error is a classified failure. Kind is one of the package sentinels.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// StatusError reports a gateway answer with an unexpected HTTP status.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.StatusCode)
}

// Configuration wraps err as a configuration error.
func Configuration(op string, err error) error {
	return &Error{Kind: ErrConfiguration, Op: op, Err: err}
}

// Encoding wraps err as an encoding error.
func Encoding(op string, err error) error {
	return &Error{Kind: ErrEncoding, Op: op, Err: err}
}

// Transport wraps err as a transport error.
func Transport(op string, err error) error {
	return &Error{Kind: ErrTransport, Op: op, Err: err}
}

// SignatureVerification wraps err as a signature verification error. err may be nil.
func SignatureVerification(op string, err error) error {
	return &Error{Kind: ErrSignatureVerification, Op: op, Err: err}
}

// KindOf returns the kind sentinel carried by err, or nil if err is unclassified.
func KindOf(err error) error {
	for _, kind := range []error{ErrConfiguration, ErrEncoding, ErrTransport, ErrSignatureVerification} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
