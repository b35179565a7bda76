// Package identity carries the caller of a ledger operation.
//
// An Identity is an opaque participant address or key. The ledger never
// interprets it beyond exact comparison. Hosts resolve credentials into an
// Identity through a Source and attach it to the request context with
// WithCaller; every ledger operation reads it back with FromContext.
package identity

import (
	"context"
	"errors"
	"strings"
)

// Identity is an opaque participant address.
type Identity string

// String returns the raw identity value.
func (i Identity) String() string { return string(i) }

// IsZero reports whether the identity is empty.
func (i Identity) IsZero() bool { return strings.TrimSpace(string(i)) == "" }

var (
	// ErrNoCaller is returned by MustFromContext when no caller is attached.
	ErrNoCaller = errors.New("identity: no caller in context")

	// ErrUnknownCredential is returned when a Source cannot resolve a credential.
	ErrUnknownCredential = errors.New("identity: unknown credential")

	// ErrInvalidToken is returned when a bearer token fails verification.
	ErrInvalidToken = errors.New("identity: invalid token")
)

type callerKey struct{}

// WithCaller returns a copy of ctx carrying the caller identity.
func WithCaller(ctx context.Context, caller Identity) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// FromContext returns the caller attached to ctx.
// The second result is false when no non-empty caller is present.
func FromContext(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(callerKey{}).(Identity)
	if !ok || v.IsZero() {
		return "", false
	}
	return v, true
}

// MustFromContext is like FromContext but returns ErrNoCaller when absent.
func MustFromContext(ctx context.Context) (Identity, error) {
	v, ok := FromContext(ctx)
	if !ok {
		return "", ErrNoCaller
	}
	return v, nil
}

// Source resolves a credential (session token, API key, signed header)
// into the identity of the caller.
type Source interface {
	Identify(ctx context.Context, credential string) (Identity, error)
}

// SourceFunc adapts a plain function to a Source.
type SourceFunc func(ctx context.Context, credential string) (Identity, error)

// Identify implements Source.
func (f SourceFunc) Identify(ctx context.Context, credential string) (Identity, error) {
	return f(ctx, credential)
}

// Authenticate resolves credential through src and attaches the result to ctx.
func Authenticate(ctx context.Context, src Source, credential string) (context.Context, error) {
	caller, err := src.Identify(ctx, credential)
	if err != nil {
		return ctx, err
	}
	return WithCaller(ctx, caller), nil
}
