package provider

import (
	"errors"
	"testing"
)

func TestSeriesStats_ChangeAndPercent(t *testing.T) {
	s := Series{
		Points:  []Candle{{Open: 100, Close: 104}, {Open: 104, Close: 110}},
		Prev:    100,
		Current: 110,
	}
	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Change != 10 || stats.ChangePercent != 10.0 {
		t.Fatalf("want change=10 pct=10.0, got %+v", stats)
	}
	if !stats.IsUp || stats.IsDown {
		t.Fatalf("want up, got %+v", stats)
	}
}

func TestSeriesStats_Down(t *testing.T) {
	s := Series{Points: []Candle{{Open: 200, Close: 150}}, Prev: 200, Current: 150}
	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Change != -50 || stats.ChangePercent != -25.0 || !stats.IsDown || stats.IsUp {
		t.Fatalf("unexpected: %+v", stats)
	}
}

func TestSeriesStats_EmptySeries(t *testing.T) {
	var s Series
	if _, err := s.Stats(); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("want ErrInsufficientData, got %v", err)
	}
}

func TestSeriesStats_ZeroPrevAvoidsDivide(t *testing.T) {
	s := Series{Points: []Candle{{Open: 0, Close: 5}}, Prev: 0, Current: 5}
	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Change != 5 || stats.ChangePercent != 0 {
		t.Fatalf("unexpected: %+v", stats)
	}
}

func TestParseRange(t *testing.T) {
	for _, tok := range []string{"1d", "2w", "1mo", "3mo", "1y", "5y", "max"} {
		r, err := ParseRange(tok)
		if err != nil || string(r) != tok {
			t.Fatalf("ParseRange(%q) = %v, %v", tok, r, err)
		}
	}
	if _, err := ParseRange("6mo"); err == nil {
		t.Fatal("want error for unknown range")
	}
}
