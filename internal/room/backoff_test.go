package room

import (
	"testing"
	"time"
)

func TestCalculateBackoff(t *testing.T) {
	base := 3 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"healthy", 0, 3 * time.Second},
		{"negative failures", -1, 3 * time.Second},
		{"one failure", 1, 6 * time.Second},
		{"two failures", 2, 12 * time.Second},
		{"three failures", 3, 24 * time.Second},
		{"four failures capped", 4, 30 * time.Second},
		{"many failures capped", 50, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateBackoff(tt.failures, base); got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, base, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_NeverExceedsCap(t *testing.T) {
	for failures := 0; failures <= 20; failures++ {
		if got := calculateBackoff(failures, 2*time.Second); got > maxBackoff {
			t.Errorf("calculateBackoff(%d) = %v, exceeds %v", failures, got, maxBackoff)
		}
	}
}
