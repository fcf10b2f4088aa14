package ui

import (
	"fmt"
	"testing"

	"github.com/elpatron68/side-launcher/internal/dispatch"
)

func TestResultLogAppendAndListLimit(t *testing.T) {
	s := NewResultLog(3)
	for i := 0; i < 5; i++ {
		s.Append("alice", "t", dispatch.CommandResult{Command: fmt.Sprintf("echo %d", i)})
	}
	// only last 3 retained, newest first
	got := s.List("alice", 10)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].Result.Command != "echo 4" || got[2].Result.Command != "echo 2" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if len(s.List("alice", 1)) != 1 {
		t.Fatalf("limit not applied")
	}
	if len(s.List("bob", 0)) != 0 {
		t.Fatalf("users must not share logs")
	}
}

func TestResultLogSink(t *testing.T) {
	s := NewResultLog(0)
	s.Sink("alice", "build").Deliver(dispatch.CommandResult{Command: "make", Stdout: "ok"})
	got := s.List("alice", 0)
	if len(got) != 1 || got[0].Label != "build" || got[0].Result.Stdout != "ok" {
		t.Fatalf("unexpected: %+v", got)
	}
}

func TestResultLogSetMax(t *testing.T) {
	s := NewResultLog(10)
	s.SetMax(2)
	s.SetMax(-1)
	for i := 0; i < 4; i++ {
		s.Append("u", "t", dispatch.CommandResult{})
	}
	if n := len(s.List("u", 0)); n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}
}
