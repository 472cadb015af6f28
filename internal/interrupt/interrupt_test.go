package interrupt

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestTokenStagesOnlyMoveForward(t *testing.T) {
	token := NewToken()
	if token.State() != None || token.IsRequested() {
		t.Fatalf("new token state = %v", token.State())
	}
	if !token.Request() {
		t.Fatal("first request should change state")
	}
	if token.Request() {
		t.Fatal("second request should be a no-op")
	}
	select {
	case <-token.Requested():
	default:
		t.Fatal("requested channel not closed")
	}
	select {
	case <-token.Forced():
		t.Fatal("forced channel closed too early")
	default:
	}
	if got := token.Escalate(); got != Forced {
		t.Fatalf("escalate = %v, want forced", got)
	}
	if token.Request() || token.State() != Forced {
		t.Fatalf("request after force changed state to %v", token.State())
	}
}

func TestForceImpliesRequest(t *testing.T) {
	token := NewToken()
	token.Force()
	select {
	case <-token.Requested():
	default:
		t.Fatal("force must close the requested channel")
	}
	if !token.IsForced() {
		t.Fatal("expected forced")
	}
}

func TestWatchEscalatesOnSecondSignal(t *testing.T) {
	token := NewToken()
	signals := make(chan os.Signal, 2)
	done := make(chan struct{})
	go func() {
		Watch(context.Background(), token, signals, 0, nil)
		close(done)
	}()

	signals <- syscall.SIGINT
	<-token.Requested()
	if token.IsForced() {
		t.Fatal("one signal must not force")
	}
	signals <- syscall.SIGINT
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return after second signal")
	}
	if !token.IsForced() {
		t.Fatalf("state = %v, want forced", token.State())
	}
}

func TestWatchEscalatesAfterTimeout(t *testing.T) {
	token := NewToken()
	signals := make(chan os.Signal, 1)
	go Watch(context.Background(), token, signals, 50*time.Millisecond, nil)

	signals <- syscall.SIGTERM
	select {
	case <-token.Forced():
	case <-time.After(2 * time.Second):
		t.Fatalf("token not forced after timeout, state = %v", token.State())
	}
}

func TestWatchStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Watch(ctx, NewToken(), make(chan os.Signal), 0, nil)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watch ignored context cancellation")
	}
}
