package utils

import (
	"os"
	"testing"
	"time"

	"github.com/stackit/stackit/config"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	config.Reset()
	os.Exit(m.Run())
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(7, "alice", "alice@example.com", "USER", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 7 || claims.Username != "alice" || claims.Email != "alice@example.com" || claims.Role != "USER" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateToken(1, "bob", "bob@example.com", "USER", -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken(token); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	token, err := GenerateToken(1, "carol", "carol@example.com", "USER", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	tampered := token[:len(token)-2] + "xx"
	if _, err := ParseToken(tampered); err == nil {
		t.Fatal("tampered token accepted")
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	if _, err := ParseToken("not.a.token"); err == nil {
		t.Fatal("garbage token accepted")
	}
}
