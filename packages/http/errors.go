package http

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies a failed request.
type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindConstruction
	KindOption
	KindTimeout
	KindTLS
)

func (k ErrorKind) String() string {
	switch k {
	case KindConstruction:
		return "construction"
	case KindOption:
		return "option"
	case KindTimeout:
		return "timeout"
	case KindTLS:
		return "tls"
	default:
		return "transport"
	}
}

var (
	ErrConstruction  = errors.New("handle construction failed")
	ErrInvalidOption = errors.New("invalid option")
	ErrTransport     = errors.New("transport failure")
	ErrTimeout       = errors.New("request timed out")
	ErrTLS           = errors.New("tls failure")
)

// RequestError is returned by every failing request. errors.Is matches it
// against the sentinel of its kind as well as the wrapped cause.
type RequestError struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *RequestError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error for %s: %v", e.Kind, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrConstruction:
		return e.Kind == KindConstruction
	case ErrInvalidOption:
		return e.Kind == KindOption
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrTLS:
		return e.Kind == KindTLS
	}
	return false
}

// optionError reports a value of the wrong type for opt.
func optionError(opt Option, want string, got any) error {
	return &RequestError{
		Kind: KindOption,
		Err:  fmt.Errorf("%s expects %s, got %T", opt, want, got),
	}
}

// classify maps a round trip failure onto an ErrorKind.
func classify(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var (
		unknownAuth  x509.UnknownAuthorityError
		hostname     x509.HostnameError
		invalid      x509.CertificateInvalidError
		verification *tls.CertificateVerificationError
		recordHeader tls.RecordHeaderError
	)
	switch {
	case errors.As(err, &unknownAuth),
		errors.As(err, &hostname),
		errors.As(err, &invalid),
		errors.As(err, &verification),
		errors.As(err, &recordHeader):
		return KindTLS
	}
	return KindTransport
}
