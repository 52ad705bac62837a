package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestCheckAdminPassword(t *testing.T) {
	b, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	hash := string(b)

	tests := []struct {
		name      string
		submitted string
		plain     string
		hash      string
		want      bool
	}{
		{"plain match", "s3cret", "s3cret", "", true},
		{"plain mismatch", "nope", "s3cret", "", false},
		{"hash match", "s3cret", "", hash, true},
		{"hash mismatch", "nope", "", hash, false},
		{"hash wins over plain", "other", "other", hash, false},
		{"empty submission", "", "", "", false},
		{"nothing configured", "s3cret", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckAdminPassword(tt.submitted, tt.plain, tt.hash); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}
