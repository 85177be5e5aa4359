package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLoggerCapturesOutput(t *testing.T) {
	defer SetLogger(nil)

	var got []string
	SetLogger(func(format string, v ...interface{}) {
		got = append(got, fmt.Sprintf(format, v...))
	})

	Logf("replayed %d packets", 42)

	if len(got) != 1 || got[0] != "replayed 42 packets" {
		t.Errorf("captured = %v", got)
	}
}

func TestSetLoggerNilInstallsNoop(t *testing.T) {
	SetLogger(nil)
	// Must not panic.
	Logf("dropped on the floor")
}
