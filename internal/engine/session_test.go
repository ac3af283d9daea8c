package engine

import (
	"testing"
	"time"

	"intraday-trader/internal/store"
)

func sessionConfig() *store.Config {
	cfg := &store.Config{}
	cfg.Session.Open = "09:15"
	cfg.Session.Close = "15:30"
	cfg.Session.WarmupMinutes = 15
	cfg.Session.EntryCutoff = "14:45"
	cfg.Session.FlattenAt = "15:15"
	return cfg
}

func TestSessionWindows(t *testing.T) {
	s, err := NewSession(sessionConfig())
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	cases := []struct {
		h, m                                       int
		inWindow, pastWarmup, beforeCutoff, flatten bool
	}{
		{9, 0, false, false, true, false},
		{9, 15, true, false, true, false},
		{9, 29, true, false, true, false},
		{9, 30, true, true, true, false},
		{12, 0, true, true, true, false},
		{14, 44, true, true, true, false},
		{14, 45, true, true, false, false},
		{15, 14, true, true, false, false},
		{15, 15, true, true, false, true},
		{15, 30, false, true, false, true},
	}
	for _, tc := range cases {
		at := time.Date(2026, 8, 28, tc.h, tc.m, 0, 0, IST)
		if got := s.InWindow(at); got != tc.inWindow {
			t.Errorf("%02d:%02d InWindow = %v, want %v", tc.h, tc.m, got, tc.inWindow)
		}
		if got := s.PastWarmup(at); got != tc.pastWarmup {
			t.Errorf("%02d:%02d PastWarmup = %v, want %v", tc.h, tc.m, got, tc.pastWarmup)
		}
		if got := s.BeforeCutoff(at); got != tc.beforeCutoff {
			t.Errorf("%02d:%02d BeforeCutoff = %v, want %v", tc.h, tc.m, got, tc.beforeCutoff)
		}
		if got := s.FlattenDue(at); got != tc.flatten {
			t.Errorf("%02d:%02d FlattenDue = %v, want %v", tc.h, tc.m, got, tc.flatten)
		}
	}
}

func TestSessionConvertsTimezones(t *testing.T) {
	s, err := NewSession(sessionConfig())
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	// 05:00 UTC is 10:30 IST, inside the window
	utc := time.Date(2026, 8, 28, 5, 0, 0, 0, time.UTC)
	if !s.InWindow(utc) {
		t.Error("UTC time inside the IST window reported out of window")
	}
}

func TestSessionRejectsBadOrdering(t *testing.T) {
	cfg := sessionConfig()
	cfg.Session.EntryCutoff = "15:20" // past flatten time
	if _, err := NewSession(cfg); err == nil {
		t.Error("expected error for cutoff after flatten")
	}
}

func TestSessionRejectsBadClock(t *testing.T) {
	cfg := sessionConfig()
	cfg.Session.Open = "25:00"
	if _, err := NewSession(cfg); err == nil {
		t.Error("expected error for out-of-range clock time")
	}
}

func TestSessionTradingDay(t *testing.T) {
	s, _ := NewSession(sessionConfig())
	// 20:00 UTC Aug 28 is 01:30 IST Aug 29
	utc := time.Date(2026, 8, 28, 20, 0, 0, 0, time.UTC)
	if got := s.TradingDay(utc); got != "2026-08-29" {
		t.Errorf("expected IST trading day 2026-08-29, got %s", got)
	}
}
