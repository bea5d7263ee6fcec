package notification

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/hitoshi/november/internal/cliq"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"user not resolved", cliq.ErrUserNotResolved, false},
		{"429", &cliq.APIStatusError{StatusCode: http.StatusTooManyRequests}, true},
		{"500", &cliq.APIStatusError{StatusCode: http.StatusInternalServerError}, true},
		{"503", &cliq.APIStatusError{StatusCode: http.StatusServiceUnavailable}, true},
		{"400", &cliq.APIStatusError{StatusCode: http.StatusBadRequest}, false},
		{"403", &cliq.APIStatusError{StatusCode: http.StatusForbidden}, false},
		{"404", &cliq.APIStatusError{StatusCode: http.StatusNotFound}, false},
		{"network error", errors.New("connection refused"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBackoff_ExponentialGrowth(t *testing.T) {
	base := 500 * time.Millisecond

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second}, // 16秒ではなく上限で頭打ち
		{10, 10 * time.Second},
	}

	for _, tt := range tests {
		if got := Backoff(base, tt.attempt); got != tt.want {
			t.Errorf("Backoff(%v, %d) = %v, want %v", base, tt.attempt, got, tt.want)
		}
	}
}

func TestBackoff_ZeroBaseUsesDefault(t *testing.T) {
	if got := Backoff(0, 0); got != defaultBackoffBase {
		t.Errorf("Backoff(0, 0) = %v, want %v", got, defaultBackoffBase)
	}
}
