package auth

import (
	"errors"
	"testing"
	"time"
)

func withTestSecret(t *testing.T) {
	t.Helper()
	t.Setenv(secretEnvVariable, "unit-test-secret")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)
}

func TestGenerateAndParseToken(t *testing.T) {
	withTestSecret(t)

	p := Principal{ID: "user-1", Class: ClassPersonnel, Role: RoleEmployee}
	token, err := GenerateToken(p, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if claims.Class != ClassPersonnel || claims.Role != RoleEmployee {
		t.Fatalf("class/role not preserved: %+v", claims)
	}
	if claims.Issuer != issuer {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatalf("expected a token id")
	}
}

func TestGenerateTokenValidation(t *testing.T) {
	withTestSecret(t)

	if _, err := GenerateToken(Principal{}, time.Hour); err == nil {
		t.Fatalf("expected error for missing principal id")
	}
	if _, err := GenerateToken(Principal{ID: "u"}, 0); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}

func TestGenerateTokenMissingSecret(t *testing.T) {
	t.Setenv(secretEnvVariable, "")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)

	if _, err := GenerateToken(Principal{ID: "u", Class: ClassAdmin}, time.Hour); !errors.Is(err, errMissingSecret) {
		t.Fatalf("expected missing-secret error, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	withTestSecret(t)

	for _, token := range []string{"", "   ", "not.a.jwt", "aaaa.bbbb.cccc"} {
		if _, err := ParseAndValidate(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestParseRejectsForeignSignature(t *testing.T) {
	withTestSecret(t)
	token, err := GenerateToken(Principal{ID: "u", Class: ClassAdmin, Role: RoleAdmin}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	t.Setenv(secretEnvVariable, "a-different-secret")
	ResetSecretForTests()
	if _, err := ParseAndValidate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected signature rejection, got %v", err)
	}
}
