package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestSuffixed(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want string
	}{
		{"acme.md", 2, "acme-2.md"},
		{"acme_swot_2024-03-15.md", 3, "acme_swot_2024-03-15-3.md"},
		{"noext", 2, "noext-2"},
	}
	for _, tt := range tests {
		if got := suffixed(tt.name, tt.n); got != tt.want {
			t.Errorf("suffixed(%q, %d) = %q, want %q", tt.name, tt.n, got, tt.want)
		}
	}
}

func TestIsDuplicateKeyError(t *testing.T) {
	dup := fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"})
	if !isDuplicateKeyError(dup) {
		t.Error("expected unique_violation to be detected through wrapping")
	}
	if isDuplicateKeyError(&pgconn.PgError{Code: "23503"}) {
		t.Error("foreign key violation is not a duplicate")
	}
	if isDuplicateKeyError(errors.New("plain")) {
		t.Error("plain error is not a duplicate")
	}
}
