package serialmux

import (
	"context"
	"testing"
	"time"
)

func TestNewMockSerialMux_RepeatsLines(t *testing.T) {
	mux := NewMockSerialMux([]string{rmcLine, ggaLine + "\r\n"}, 5*time.Millisecond)
	_, ch := mux.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mux.Monitor(ctx)

	want := []string{rmcLine, ggaLine, rmcLine}
	for i, w := range want {
		select {
		case got := <-ch:
			if got != w {
				t.Errorf("line %d = %q, want %q", i, got, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for line %d", i)
		}
	}

	if err := mux.SendCommand(Sentence("PMTK605")); err != nil {
		t.Fatalf("SendCommand() error = %v", err)
	}
	if got := mux.port.Written(); got != "$PMTK605*31\r\n" {
		t.Errorf("Written() = %q", got)
	}
	if err := mux.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := mux.port.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestNewMockSerialMux_NoLines(t *testing.T) {
	mux := NewMockSerialMux(nil, time.Millisecond)
	done := make(chan error, 1)
	go func() { done <- mux.Monitor(context.Background()) }()

	mux.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Monitor did not return after Close")
	}
}
