package httpapi

import (
	"errors"
	"testing"
)

var errBoom = errors.New("boom")

func TestSetMaxBodyBytes_DefaultWhenNonPositive(t *testing.T) {
	defer SetMaxBodyBytes(0)
	SetMaxBodyBytes(-1)
	if maxBodyBytes != 1<<20 {
		t.Fatalf("expected default 1MiB, got %d", maxBodyBytes)
	}
	SetMaxBodyBytes(1234)
	if maxBodyBytes != 1234 {
		t.Fatalf("expected 1234, got %d", maxBodyBytes)
	}
}

func TestSetGenerateTimeoutSeconds_NormalizesNegativeToZero(t *testing.T) {
	defer SetGenerateTimeoutSeconds(0)
	SetGenerateTimeoutSeconds(-5)
	if generateTimeout != 0 {
		t.Fatalf("expected 0, got %d", generateTimeout)
	}
	SetGenerateTimeoutSeconds(3)
	if generateTimeout != 3 {
		t.Fatalf("expected 3, got %d", generateTimeout)
	}
}
