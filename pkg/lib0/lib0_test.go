package lib0

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func TestVarUintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 16383, 16384, 1<<32 - 1, 1 << 53, 1<<64 - 1}
	enc := NewEncoder()
	for _, v := range values {
		enc.WriteVarUint(v)
	}
	dec := NewDecoder(enc.Bytes())
	for _, want := range values {
		got, err := dec.ReadVarUint()
		if err != nil {
			t.Fatalf("ReadVarUint failed: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
	if dec.HasContent() {
		t.Fatal("decoder should be exhausted")
	}
}

func TestVarUintSmallValuesAreOneByte(t *testing.T) {
	for v := uint64(0); v < 128; v++ {
		enc := NewEncoder()
		enc.WriteVarUint(v)
		if enc.Len() != 1 {
			t.Fatalf("value %d should encode to 1 byte, got %d", v, enc.Len())
		}
	}
}

func TestVarIntRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 63, -63, 64, -64, 1000, -1000, 1 << 40, -(1 << 40)}
	enc := NewEncoder()
	for _, v := range values {
		enc.WriteVarInt(v)
	}
	dec := NewDecoder(enc.Bytes())
	for _, want := range values {
		got, err := dec.ReadVarInt()
		if err != nil {
			t.Fatalf("ReadVarInt failed: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
}

func TestVarStringRoundTrip(t *testing.T) {
	values := []string{"", "a", "hello world", "你好，世界", string([]byte{0, 1, 2})}
	enc := NewEncoder()
	for _, v := range values {
		enc.WriteVarString(v)
	}
	dec := NewDecoder(enc.Bytes())
	for _, want := range values {
		got, err := dec.ReadVarString()
		if err != nil {
			t.Fatalf("ReadVarString failed: %v", err)
		}
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}

func TestTruncatedInput(t *testing.T) {
	enc := NewEncoder()
	enc.WriteVarUint(1 << 40)
	full := enc.Bytes()

	for i := 0; i < len(full); i++ {
		dec := NewDecoder(full[:i])
		if _, err := dec.ReadVarUint(); !errors.Is(err, ErrUnexpectedEndOfBuffer) {
			t.Fatalf("prefix of %d bytes: expected ErrUnexpectedEndOfBuffer, got %v", i, err)
		}
	}

	dec := NewDecoder([]byte{5, 'a', 'b'})
	if _, err := dec.ReadVarString(); !errors.Is(err, ErrUnexpectedEndOfBuffer) {
		t.Fatalf("expected ErrUnexpectedEndOfBuffer, got %v", err)
	}
}

func TestRleRoundTrip(t *testing.T) {
	input := []uint8{1, 1, 1, 1, 2, 3, 3, 0, 0, 0, 0, 0, 7}
	enc := NewRleEncoder()
	for _, v := range input {
		enc.Write(v)
	}
	out := enc.Bytes()
	if len(out) >= len(input) {
		t.Fatalf("rle should compress runs: %d >= %d", len(out), len(input))
	}
	dec := NewRleDecoder(out)
	for i, want := range input {
		got, err := dec.Read()
		if err != nil {
			t.Fatalf("read %d failed: %v", i, err)
		}
		if got != want {
			t.Fatalf("index %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestUintOptRleRoundTrip(t *testing.T) {
	input := []uint64{0, 0, 0, 5, 5, 1, 2, 3, 3, 3, 3, 1 << 40}
	enc := NewUintOptRleEncoder()
	for _, v := range input {
		enc.Write(v)
	}
	dec := NewUintOptRleDecoder(enc.Bytes())
	for i, want := range input {
		got, err := dec.Read()
		if err != nil {
			t.Fatalf("read %d failed: %v", i, err)
		}
		if got != want {
			t.Fatalf("index %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestIntDiffOptRleRoundTrip(t *testing.T) {
	input := []uint64{0, 1, 2, 3, 10, 11, 12, 5, 6, 100, 100, 100, 90, 80, 70}
	enc := NewIntDiffOptRleEncoder()
	for _, v := range input {
		enc.Write(v)
	}
	dec := NewIntDiffOptRleDecoder(enc.Bytes())
	for i, want := range input {
		got, err := dec.Read()
		if err != nil {
			t.Fatalf("read %d failed: %v", i, err)
		}
		if got != want {
			t.Fatalf("index %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestStringColumnRoundTrip(t *testing.T) {
	input := []string{"key", "key", "", "另一个", "x"}
	enc := NewStringEncoder()
	for _, v := range input {
		enc.Write(v)
	}
	dec := NewStringDecoder(enc.Bytes())
	for i, want := range input {
		got, err := dec.Read()
		if err != nil {
			t.Fatalf("read %d failed: %v", i, err)
		}
		if got != want {
			t.Fatalf("index %d: expected %q, got %q", i, want, got)
		}
	}
}

func TestAnyRoundTrip(t *testing.T) {
	values := []any{
		nil,
		true,
		false,
		int64(42),
		int64(-42),
		float64(3.5),
		"text",
		[]byte{1, 2, 3},
		[]any{int64(1), "two", nil},
		map[string]any{"a": int64(1), "b": []any{true}},
	}
	for _, v := range values {
		enc := NewEncoder()
		if err := enc.WriteAny(v); err != nil {
			t.Fatalf("WriteAny(%v) failed: %v", v, err)
		}
		dec := NewDecoder(enc.Bytes())
		got, err := dec.ReadAny()
		if err != nil {
			t.Fatalf("ReadAny(%v) failed: %v", v, err)
		}
		if !reflect.DeepEqual(got, v) {
			t.Fatalf("expected %#v, got %#v", v, got)
		}
	}
}

func TestAnyRejectsUnknownTag(t *testing.T) {
	dec := NewDecoder([]byte{42})
	if _, err := dec.ReadAny(); err == nil {
		t.Fatal("expected error for unknown tag")
	}
}

func TestWriteVarUint8Array(t *testing.T) {
	payload := []byte{9, 8, 7}
	enc := NewEncoder()
	enc.WriteVarUint8Array(payload)
	dec := NewDecoder(enc.Bytes())
	got, err := dec.ReadVarUint8Array()
	if err != nil {
		t.Fatalf("ReadVarUint8Array failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("expected %v, got %v", payload, got)
	}
}
