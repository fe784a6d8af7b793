package hash

import (
	"errors"
	"testing"

	"authd/internal/common"
)

func TestHashAndVerify_Success(t *testing.T) {
	t.Parallel()

	m := NewManager([]byte("pepper"))

	h, err := m.Hash("s3cret-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if h == "s3cret-password" {
		t.Fatalf("hash must not equal plaintext")
	}

	if err := m.Verify("s3cret-password", h); err != nil {
		t.Fatalf("Verify error: %v", err)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	t.Parallel()

	m := NewManager([]byte("pepper"))

	h, err := m.Hash("right")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if err := m.Verify("wrong", h); !errors.Is(err, common.ErrInvalidPassword) {
		t.Fatalf("expected common.ErrInvalidPassword, got %v", err)
	}
}

func TestVerify_DifferentPepperFails(t *testing.T) {
	t.Parallel()

	h, err := NewManager([]byte("pepper-a")).Hash("pw")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if err := NewManager([]byte("pepper-b")).Verify("pw", h); !errors.Is(err, common.ErrInvalidPassword) {
		t.Fatalf("expected common.ErrInvalidPassword with foreign pepper, got %v", err)
	}
}

func TestHash_EmptyPassword(t *testing.T) {
	t.Parallel()

	if _, err := NewManager([]byte("p")).Hash(""); err == nil {
		t.Fatalf("expected error for empty password")
	}
}

func TestHash_Salted(t *testing.T) {
	t.Parallel()

	m := NewManager([]byte("pepper"))
	a, err := m.Hash("pw")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	b, err := m.Hash("pw")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if a == b {
		t.Fatalf("bcrypt output must differ per call (unique salts)")
	}
}
