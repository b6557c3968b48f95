package cmd

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/teamdeck/teamdeck/internal/identity"
)

// TestCommandsRegistered tests that every subcommand is wired to root
func TestCommandsRegistered(t *testing.T) {
	want := []string{"signin", "signup", "signout", "status", "dashboard"}

	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}

	for _, name := range want {
		if !registered[name] {
			t.Errorf("Expected command %q registered on root", name)
		}
	}
}

// TestPromptSignUpSkipsPromptWhenComplete tests that fully-flagged
// invocations never open an interactive form
func TestPromptSignUpSkipsPromptWhenComplete(t *testing.T) {
	fields := identity.SignUpFields{
		Email:    "user@example.com",
		Password: "secret",
		Name:     "Sam",
		RoleCode: "TEAM42",
	}
	if err := promptSignUp(&fields, false); err != nil {
		t.Fatalf("Expected no error for complete fields, got %v", err)
	}

	adminFields := identity.SignUpFields{
		Email:      "boss@example.com",
		Password:   "secret",
		Name:       "Boss",
		LicenseKey: "KEY-123",
	}
	if err := promptSignUp(&adminFields, true); err != nil {
		t.Fatalf("Expected no error for complete admin fields, got %v", err)
	}
}

// TestTokenExpiryParsing tests the unverified expiry read used by the
// status command
func TestTokenExpiryParsing(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		t.Fatalf("parse unverified: %v", err)
	}
	got, err := claims.GetExpirationTime()
	if err != nil || got == nil {
		t.Fatalf("expected expiry claim, got %v err %v", got, err)
	}
	if !got.Time.Equal(exp) {
		t.Errorf("Expected expiry %v, got %v", exp, got.Time)
	}
}
