package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"mediakiller/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "encode", "ffmpeg", "exit status 1", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"encode", "ffmpeg", "exit status 1", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrConflict, "preflight", "", "", nil)
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict marker, got %v", err)
	}
	if err.Error() != "input/output conflict: preflight" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestReason(t *testing.T) {
	cases := map[string]error{
		"":              nil,
		"conflict":      services.Wrap(services.ErrConflict, "preflight", "", "output equals input", nil),
		"environment":   fmt.Errorf("outer: %w", services.Wrap(services.ErrEnvironment, "preflight", "", "", nil)),
		"canceled":      services.ErrCanceled,
		"force_stopped": services.ErrForceStopped,
		"external_tool": services.Wrap(services.ErrExternalTool, "encode", "", "", errors.New("x")),
		"configuration": services.ErrConfiguration,
		"unknown":       errors.New("other"),
	}
	for want, err := range cases {
		if got := services.Reason(err); got != want {
			t.Fatalf("Reason(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id")
	}
	ctx = services.WithRunID(ctx, "run-9")
	ctx = services.WithMission(ctx, "clipA")
	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-9" {
		t.Fatalf("run id = %q, %v", id, ok)
	}
	if name, ok := services.MissionFromContext(ctx); !ok || name != "clipA" {
		t.Fatalf("mission = %q, %v", name, ok)
	}
	if services.WithMission(ctx, "") != ctx {
		t.Fatal("empty mission should return the same context")
	}
}
