package core

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// TestNavigationHistory_Ring verifies the history ring buffer
// Main test items:
// 1. Recent returns newest first and honors the limit
// 2. Old records are overwritten once the buffer is full
// 3. Last reports the newest record
func TestNavigationHistory_Ring(t *testing.T) {
	h := newNavigationHistory(3)
	if _, ok := h.Last(); ok {
		t.Fatal("empty history reported a last record")
	}
	if got := h.Recent(0); got != nil {
		t.Fatalf("Recent on empty history = %v, want nil", got)
	}

	for i := uint64(1); i <= 5; i++ {
		h.Add(NavigationRecord{Seq: i})
	}

	recent := h.Recent(0)
	if len(recent) != 3 {
		t.Fatalf("len(Recent(0)) = %d, want 3", len(recent))
	}
	for i, want := range []uint64{5, 4, 3} {
		if recent[i].Seq != want {
			t.Fatalf("Recent[%d].Seq = %d, want %d", i, recent[i].Seq, want)
		}
	}
	if got := h.Recent(1); len(got) != 1 || got[0].Seq != 5 {
		t.Fatalf("Recent(1) = %v", got)
	}
	if last, ok := h.Last(); !ok || last.Seq != 5 {
		t.Fatalf("Last() = %v, %v", last, ok)
	}
}

// TestNavigationError_Wrapping verifies sentinel matching through NavigationError
func TestNavigationError_Wrapping(t *testing.T) {
	err := newNavigationError("enter", "/a", ErrEnterFailed, errBoom)

	if !IsEnterFailure(err) || !errors.Is(err, errBoom) {
		t.Fatalf("error chain lost: %v", err)
	}
	if IsSuperseded(err) {
		t.Fatal("enter failure reported as superseded")
	}

	var navErr *NavigationError
	if !errors.As(err, &navErr) || navErr.Op != "enter" || navErr.Path != "/a" {
		t.Fatalf("errors.As = %+v", navErr)
	}
	if !strings.Contains(err.Error(), `navigation enter "/a"`) {
		t.Fatalf("Error() = %q", err.Error())
	}

	bare := newNavigationError("discard", "/b", ErrSuperseded, nil)
	if !IsSuperseded(bare) || bare.Err != ErrSuperseded {
		t.Fatalf("bare error = %v", bare)
	}
}

// TestSlogLogger_Fields verifies fields become slog attributes
func TestSlogLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	logger.Debug("hidden")
	logger.Warn("Navigation recovered", F("path", "/a"), F("seq", 3))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written below level: %q", out)
	}
	for _, want := range []string{"level=WARN", `msg="Navigation recovered"`, "path=/a", "seq=3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}
