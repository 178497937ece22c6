package controllers

import (
	"errors"
	"testing"

	"gorm.io/gorm"
)

func TestSignupConflictMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		code     int
		conflict bool
	}{
		{"sqlite email", errors.New("UNIQUE constraint failed: users.email"), 40901, true},
		{"sqlite username", errors.New("UNIQUE constraint failed: users.username"), 40902, true},
		{"mysql email", errors.New("Error 1062 (23000): Duplicate entry 'a@example.com' for key 'users.idx_users_email'"), 40901, true},
		{"mysql username", errors.New("Error 1062 (23000): Duplicate entry 'alice' for key 'users.idx_users_username'"), 40902, true},
		{"gorm sentinel", gorm.ErrDuplicatedKey, 40902, true},
		{"unrelated error", errors.New("connection reset by peer"), 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, msg, conflict := signupConflict(tc.err)
			if conflict != tc.conflict {
				t.Fatalf("conflict = %v, want %v", conflict, tc.conflict)
			}
			if code != tc.code {
				t.Fatalf("code = %d, want %d", code, tc.code)
			}
			if conflict && msg == "" {
				t.Fatal("conflict with empty message")
			}
		})
	}
}
