package wire

import (
	"bytes"
	"testing"
)

func testToken() SessionToken {
	return SessionToken{1, 2, 3, 4, 5, 6, 7, 8}
}

func TestDatagramRoundTrip(t *testing.T) {
	secret := []byte("super-secret-key-32-bytes-long!")
	payload := []byte("move:1,0,0")

	raw, err := Seal(testToken(), 42, OpMovementInput, payload, secret)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if len(raw) < MinDatagramBytes || len(raw) > MaxDatagramBytes {
		t.Fatalf("sealed datagram size %d out of bounds", len(raw))
	}

	d, err := Open(raw, secret)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if d.Token != testToken() {
		t.Errorf("token mismatch")
	}
	if d.Seq != 42 {
		t.Errorf("seq = %d, want 42", d.Seq)
	}
	if d.Opcode != OpMovementInput {
		t.Errorf("opcode = %v, want %v", d.Opcode, OpMovementInput)
	}
	if !bytes.Equal(d.Payload, payload) {
		t.Errorf("payload mismatch")
	}
}

func TestHMACRejectsMutatedByte(t *testing.T) {
	secret := []byte("super-secret-key-32-bytes-long!")
	raw, err := Seal(testToken(), 1, OpMovementInput, []byte("abcdefg"), secret)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	for i := 0; i < len(raw)-macLen; i++ {
		mutated := append([]byte(nil), raw...)
		mutated[i] ^= 0xFF
		if _, err := Open(mutated, secret); err == nil {
			t.Fatalf("mutating byte %d did not invalidate HMAC", i)
		}
	}
}

func TestHMACRejectsWrongSecret(t *testing.T) {
	secret := []byte("super-secret-key-32-bytes-long!")
	other := []byte("a-totally-different-secret-value")
	raw, err := Seal(testToken(), 1, OpMovementInput, []byte("abcdefg"), secret)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := Open(raw, other); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestSizeBounds(t *testing.T) {
	secret := []byte("k")
	if _, err := Open(make([]byte, MinDatagramBytes-1), secret); err == nil {
		t.Fatal("expected error for undersized datagram")
	}
	if _, err := Open(make([]byte, MaxDatagramBytes+1), secret); err == nil {
		t.Fatal("expected error for oversized datagram")
	}
}

func TestPeekToken(t *testing.T) {
	secret := []byte("k")
	raw, _ := Seal(testToken(), 1, OpMovementInput, nil, secret)
	tok, ok := PeekToken(raw)
	if !ok {
		t.Fatal("expected PeekToken to succeed")
	}
	if tok != testToken() {
		t.Errorf("token mismatch")
	}
	if _, ok := PeekToken(raw[:MinDatagramBytes-1]); ok {
		t.Fatal("expected PeekToken to fail on undersized input")
	}
}
