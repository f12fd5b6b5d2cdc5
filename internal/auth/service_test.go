package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pbystrov/directchat-server/internal/store"
	"github.com/pbystrov/directchat-server/internal/store/sqlite"
)

func newTestService(t *testing.T) (*Service, store.Store) {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.Setup)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := &JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	}
	return NewService(st, cfg), st
}

func TestRegisterAndLogin(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	token, err := svc.Register(ctx, "alice", "Alice A", "https://cdn/avatars/1.png", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate registration token: %v", err)
	}
	if claims.Username != "alice" || claims.Name != "Alice A" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	user, err := st.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("user must be persisted: %v", err)
	}
	if user.PasswordHash == "secret1" {
		t.Fatalf("password must be stored hashed")
	}
	if user.AvatarURL != "https://cdn/avatars/1.png" {
		t.Fatalf("avatar reference must be persisted")
	}

	loginToken, err := svc.Login(ctx, "alice", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.ValidateToken(loginToken); err != nil {
		t.Fatalf("validate login token: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "short username", username: "ab", password: "secret1", wantErr: ErrInvalidUsername},
		{name: "short password", username: "alice", password: "12345", wantErr: ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, "", "", tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := svc.Register(ctx, "alice", "", "", "secret1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, "alice", "", "", "secret1"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestRegisterDefaultsNameToUsername(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "bob", "  ", "", "secret1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	user, err := st.GetUserByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Name != "bob" {
		t.Fatalf("expected name to default to username, got %q", user.Name)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "", "", "secret1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc, _ := newTestService(t)

	token, err := svc.Register(context.Background(), "alice", "", "", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	other := &JWTConfig{Secret: []byte("other-secret"), Issuer: "test", Audience: "test", TTL: time.Hour}
	forged, err := GenerateToken(other, 1, "alice", "")
	if err != nil {
		t.Fatalf("generate forged token: %v", err)
	}

	if _, err := svc.ValidateToken(forged); err == nil {
		t.Fatalf("token signed with another secret must be rejected")
	}
	if _, err := svc.ValidateToken(token + "x"); err == nil {
		t.Fatalf("tampered token must be rejected")
	}
}
