package asioerr

import (
	"errors"
	"testing"
)

func TestCodeOfClassifiesKnownAndUnknown(t *testing.T) {
	if CodeOf(nil) != OK {
		t.Fatalf("CodeOf(nil) should be OK")
	}
	wrapped := New("socket.receive", EOF)
	if CodeOf(wrapped) != EOF {
		t.Fatalf("CodeOf(wrapped EOF) = %v, want EOF", CodeOf(wrapped))
	}
	if CodeOf(errors.New("boom")) != System {
		t.Fatalf("CodeOf(plain error) should default to System")
	}
}

func TestWrapUnwrapsUnderlyingCause(t *testing.T) {
	cause := errors.New("econnreset")
	err := Wrap("socket.send", ConnectionReset, cause)
	if !errors.Is(err, cause) {
		t.Fatalf("Wrap should let errors.Is see through to the cause")
	}
	if err.Error() == "" {
		t.Fatalf("Error() should not be empty")
	}
}

func TestIsAborted(t *testing.T) {
	if !IsAborted(New("timer.wait", OperationAborted)) {
		t.Fatalf("IsAborted should recognize OperationAborted")
	}
	if IsAborted(New("timer.wait", EOF)) {
		t.Fatalf("IsAborted should reject non-aborted codes")
	}
}
