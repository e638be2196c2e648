// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"strings"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		userID string
	}{
		{"uuid-style id", "0b38e98e-1b2f-4f6e-9e38-8f4f1c2d3e4f"},
		{"short id", "u1"},
		{"id with separator characters", "user.with|odd:chars"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := GenerateToken(tt.userID, "secret-a")

			got, err := VerifyToken(token, "secret-a")
			if err != nil {
				t.Fatalf("VerifyToken failed: %v", err)
			}
			if got != tt.userID {
				t.Errorf("Expected user id %q, got %q", tt.userID, got)
			}
		})
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	token := GenerateToken("user-1", "secret-a")

	if _, err := VerifyToken(token, "secret-b"); err == nil {
		t.Error("Expected verification to fail with a different secret")
	}
}

func TestVerifyTokenRejectsTampering(t *testing.T) {
	token := GenerateToken("user-1", "secret-a")

	// Swap the payload for another user while keeping the signature
	otherPayload := strings.Split(GenerateToken("user-2", "secret-a"), ".")[0]
	sig := strings.Split(token, ".")[1]
	forged := otherPayload + "." + sig

	if _, err := VerifyToken(forged, "secret-a"); err == nil {
		t.Error("Expected verification to fail for a forged payload")
	}
}

func TestVerifyTokenRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"no separator", "abcdef"},
		{"empty payload", ".abcdef"},
		{"empty signature", "abcdef."},
		{"garbage", "not a token at all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := VerifyToken(tt.token, "secret-a"); err == nil {
				t.Errorf("Expected %q to be rejected", tt.token)
			}
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if hashed == "correct horse battery staple" {
		t.Error("Hash must not equal the plaintext")
	}
	if !CheckPassword(hashed, "correct horse battery staple") {
		t.Error("Expected matching password to verify")
	}
	if CheckPassword(hashed, "wrong password") {
		t.Error("Expected non-matching password to fail")
	}
}
