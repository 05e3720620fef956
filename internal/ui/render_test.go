package ui

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/five82/railcab/internal/railroad"
	"github.com/five82/railcab/internal/state"
)

func TestSpeedBar(t *testing.T) {
	tests := []struct {
		speed, width int
		want         string
	}{
		{0, 4, "░░░░"},
		{50, 4, "██░░"},
		{100, 4, "████"},
		{250, 4, "████"},
		{-50, 4, "██░░"},
		{10, 0, ""},
	}
	for _, tt := range tests {
		if got := speedBar(tt.speed, tt.width); got != tt.want {
			t.Fatalf("speedBar(%d, %d) = %q, want %q", tt.speed, tt.width, got, tt.want)
		}
	}
}

func TestConnectionState(t *testing.T) {
	var s state.Store
	if got := connectionState(s.Snapshot(), state.SourceLocomotive); got != "idle" {
		t.Fatalf("unselected state = %q, want idle", got)
	}

	s.SetSelection(state.SourceLocomotive, "a")
	if got := connectionState(s.Snapshot(), state.SourceLocomotive); got != "polling" {
		t.Fatalf("selected state = %q, want polling", got)
	}

	s.RecordError(state.SourceLocomotive, errors.New("one"))
	s.RecordError(state.SourceLocomotive, errors.New("two"))
	if got := connectionState(s.Snapshot(), state.SourceLocomotive); got != "offline" {
		t.Fatalf("failing state = %q, want offline", got)
	}
	if got := connectionState(s.Snapshot(), state.SourceSwitch); got != "idle" {
		t.Fatalf("switch state = %q, want idle", got)
	}
}

func TestClassifyConnectionError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("propagate speed: %w", railroad.ErrConflict), "CONFLICT"},
		{fmt.Errorf("propagate speed: %w", railroad.ErrUnassigned), "UNASSIGNED"},
		{errors.New("dial tcp: connection refused"), "OFFLINE"},
		{errors.New("lookup x: no such host"), "HOST NOT FOUND"},
		{errors.New("context deadline exceeded"), "TIMEOUT"},
		{errors.New("api GET /x returned status 500"), "ERROR"},
	}
	for _, tt := range tests {
		if got := classifyConnectionError(tt.err); got != tt.want {
			t.Fatalf("classifyConnectionError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestFormatRemaining(t *testing.T) {
	if got := formatRemaining(4*time.Minute + 32*time.Second); got != "04:32" {
		t.Fatalf("formatRemaining = %q, want 04:32", got)
	}
	if got := formatRemaining(1400 * time.Millisecond); got != "00:01" {
		t.Fatalf("formatRemaining = %q, want 00:01", got)
	}
}

func TestTruncateMiddleAndShortID(t *testing.T) {
	if got := truncateMiddle("http://host/locomotive/abcdef", 11); got != "http:…bcdef" {
		t.Fatalf("truncateMiddle = %q", got)
	}
	if got := truncateMiddle("short", 10); got != "short" {
		t.Fatalf("truncateMiddle short = %q", got)
	}
	if got := shortID("0123456789"); got != "01234567" {
		t.Fatalf("shortID = %q", got)
	}
}
