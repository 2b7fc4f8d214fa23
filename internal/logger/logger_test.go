package logger

import "testing"

func TestNew(t *testing.T) {
	for _, development := range []bool{true, false} {
		log, err := New(development)
		if err != nil {
			t.Fatalf("New(%v): %v", development, err)
		}
		if log == nil {
			t.Fatalf("New(%v) returned nil logger", development)
		}
		log.Info("test message")
	}
}

func TestMust(t *testing.T) {
	if log := Must(true); log == nil {
		t.Fatal("expected non-nil logger")
	}
}
