package repository

import (
	"errors"
	"testing"

	"github.com/lib/pq"
)

// PostgresRatingRepoはRatingRepositoryインターフェースを満たすことを検証
func TestPostgresRatingRepo_ImplementsInterface(t *testing.T) {
	var _ RatingRepository = (*PostgresRatingRepo)(nil)
}

// NewPostgresRatingRepoが正しく初期化されることを検証
func TestNewPostgresRatingRepo_Initializes(t *testing.T) {
	repo := NewPostgresRatingRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"unique violation", &pq.Error{Code: "23505"}, true},
		{"other pq error", &pq.Error{Code: "23503"}, false},
		{"wrapped unique violation", errors.Join(errors.New("insert failed"), &pq.Error{Code: "23505"}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsInvalidTextRepresentation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"invalid uuid text", &pq.Error{Code: "22P02"}, true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"wrapped invalid text", errors.Join(errors.New("query failed"), &pq.Error{Code: "22P02"}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isInvalidTextRepresentation(tt.err); got != tt.want {
				t.Errorf("isInvalidTextRepresentation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
