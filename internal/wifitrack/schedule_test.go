package wifitrack_test

import (
	"testing"
	"time"

	"github.com/dantte-lp/wifitracker/internal/wifitrack"
)

func TestScheduleAtSaturatesAtLastStep(t *testing.T) {
	s := wifitrack.NewSchedule([]time.Duration{time.Second, 2 * time.Second, 4 * time.Second})

	tests := []struct {
		index int
		want  time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 4 * time.Second},
		{100, 4 * time.Second},
	}
	for _, tt := range tests {
		if got := s.At(tt.index); got != tt.want {
			t.Errorf("At(%d) = %v, want %v", tt.index, got, tt.want)
		}
	}
}

func TestScheduleFallsBackToDefault(t *testing.T) {
	tests := []struct {
		name      string
		configured []time.Duration
	}{
		{"empty", nil},
		{"zero entry", []time.Duration{time.Second, 0}},
		{"negative entry", []time.Duration{-time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := wifitrack.NewSchedule(tt.configured)
			if s.Len() != len(wifitrack.DefaultScanSchedule) {
				t.Fatalf("Len() = %d, want fallback to DefaultScanSchedule (%d)", s.Len(), len(wifitrack.DefaultScanSchedule))
			}
			if s.At(0) != wifitrack.DefaultScanSchedule[0] {
				t.Fatalf("At(0) = %v, want %v", s.At(0), wifitrack.DefaultScanSchedule[0])
			}
		})
	}
}
