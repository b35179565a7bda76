package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/provenance/identity"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := identity.WithCaller(context.Background(), "0xmanufacturer")

	got, ok := identity.FromContext(ctx)
	if !ok {
		t.Fatal("expected caller in context")
	}
	if got != "0xmanufacturer" {
		t.Errorf("got %q, want %q", got, "0xmanufacturer")
	}
}

func TestFromContextMissing(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
	}{
		{"empty context", context.Background()},
		{"blank caller", identity.WithCaller(context.Background(), "   ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := identity.FromContext(tt.ctx); ok {
				t.Error("expected no caller")
			}
			if _, err := identity.MustFromContext(tt.ctx); !errors.Is(err, identity.ErrNoCaller) {
				t.Errorf("expected ErrNoCaller, got %v", err)
			}
		})
	}
}

func TestStaticSource(t *testing.T) {
	src := identity.NewStatic(map[string]identity.Identity{
		"key-admin": "0xadmin",
	})
	src.Set("key-dist", "0xdistributor")

	ctx, err := identity.Authenticate(context.Background(), src, "key-dist")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got, _ := identity.FromContext(ctx); got != "0xdistributor" {
		t.Errorf("got %q, want 0xdistributor", got)
	}

	if _, err := src.Identify(context.Background(), "nope"); !errors.Is(err, identity.ErrUnknownCredential) {
		t.Errorf("expected ErrUnknownCredential, got %v", err)
	}
}

func TestTokenSource(t *testing.T) {
	now := time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	secret := []byte("test-secret")

	src := identity.NewTokenSource(secret,
		identity.WithIssuer("provenance"),
		identity.WithAudience("tracking"),
		identity.WithTokenClock(clock),
	)

	token, err := src.Issue("0xretailer", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	t.Run("valid token", func(t *testing.T) {
		who, err := src.Identify(context.Background(), "Bearer "+token)
		if err != nil {
			t.Fatalf("Identify: %v", err)
		}
		if who != "0xretailer" {
			t.Errorf("got %q, want 0xretailer", who)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := identity.NewTokenSource([]byte("other"),
			identity.WithIssuer("provenance"),
			identity.WithAudience("tracking"),
			identity.WithTokenClock(clock),
		)
		if _, err := other.Identify(context.Background(), token); !errors.Is(err, identity.ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := identity.NewTokenSource(secret,
			identity.WithIssuer("provenance"),
			identity.WithAudience("warehouse"),
			identity.WithTokenClock(clock),
		)
		if _, err := other.Identify(context.Background(), token); !errors.Is(err, identity.ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		later := identity.NewTokenSource(secret,
			identity.WithIssuer("provenance"),
			identity.WithAudience("tracking"),
			identity.WithTokenClock(func() time.Time { return now.Add(2 * time.Hour) }),
		)
		if _, err := later.Identify(context.Background(), token); !errors.Is(err, identity.ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("empty credential", func(t *testing.T) {
		if _, err := src.Identify(context.Background(), "Bearer "); !errors.Is(err, identity.ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("issue for empty identity", func(t *testing.T) {
		if _, err := src.Issue("", time.Hour); err == nil {
			t.Error("expected error issuing token for empty identity")
		}
	})
}
