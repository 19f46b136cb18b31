package y_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/suryatmodulus/yjs/pkg/y"
)

func TestV2RoundTrip(t *testing.T) {
	docA := y.NewDoc(y.WithClientID(7), y.WithCodec(y.V2Codec()))
	insertText(t, docA, "text", 0, "hello v2")
	deleteText(t, docA, "text", 0, 1)

	update, err := y.EncodeStateAsUpdateV2(docA, nil)
	if err != nil {
		t.Fatalf("encode v2 failed: %v", err)
	}

	docB := y.NewDoc(y.WithClientID(8), y.WithCodec(y.V2Codec()))
	if err := y.ApplyUpdateV2(docB, update, nil); err != nil {
		t.Fatalf("apply v2 failed: %v", err)
	}
	if got := textContent(t, docB, "text"); got != "ello v2" {
		t.Fatalf("expected %q, got %q", "ello v2", got)
	}

	reencoded, err := y.EncodeStateAsUpdateV2(docB, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(update, reencoded) {
		t.Fatal("v2 re-encoding differs")
	}
}

func TestV2IncrementalSync(t *testing.T) {
	docA := y.NewDoc(y.WithClientID(1), y.WithCodec(y.V2Codec()))
	docB := y.NewDoc(y.WithClientID(2), y.WithCodec(y.V2Codec()))

	insertText(t, docA, "text", 0, "shared")
	update, err := y.EncodeStateAsUpdateV2(docA, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := y.ApplyUpdateV2(docB, update, nil); err != nil {
		t.Fatal(err)
	}

	insertText(t, docB, "text", 6, " state")
	diff, err := y.EncodeStateAsUpdateV2(docB, y.EncodeStateVector(docA))
	if err != nil {
		t.Fatal(err)
	}
	if err := y.ApplyUpdateV2(docA, diff, nil); err != nil {
		t.Fatal(err)
	}
	if got := textContent(t, docA, "text"); got != "shared state" {
		t.Fatalf("expected %q, got %q", "shared state", got)
	}
}

func TestV1DecoderRejectsV2Frame(t *testing.T) {
	docA := y.NewDoc(y.WithClientID(7), y.WithCodec(y.V2Codec()))
	insertText(t, docA, "text", 0, "abc")
	v2, err := y.EncodeStateAsUpdateV2(docA, nil)
	if err != nil {
		t.Fatal(err)
	}

	docB := y.NewDoc(y.WithClientID(8), y.WithCodec(y.V1Codec()))
	if err := y.ApplyUpdateWithCodec(docB, v2, nil, y.V1Codec()); !errors.Is(err, y.ErrMalformedUpdate) {
		t.Fatalf("expected ErrMalformedUpdate, got %v", err)
	}
	if len(docB.Store.Clients) != 0 {
		t.Fatal("rejected frame must leave the store untouched")
	}
}

func TestV2DecoderRejectsV1Frame(t *testing.T) {
	docA := y.NewDoc(y.WithClientID(7), y.WithCodec(y.V1Codec()))
	insertText(t, docA, "text", 0, "abc")
	v1 := encodeV1(t, docA, nil)

	docB := y.NewDoc(y.WithClientID(8), y.WithCodec(y.V2Codec()))
	err := y.ApplyUpdateV2(docB, v1, nil)
	if !errors.Is(err, y.ErrMalformedUpdate) && !errors.Is(err, y.ErrUnknownFormatVersion) {
		t.Fatalf("expected a format error, got %v", err)
	}
}

func TestUseV2EncodingFlipsDefault(t *testing.T) {
	y.UseV2Encoding()
	y.UseV2Encoding() // 幂等

	if codec := y.DefaultCodec(); codec.Version != 2 {
		t.Fatalf("expected default version 2, got %d", codec.Version)
	}

	docA := y.NewDoc(y.WithClientID(1))
	docB := y.NewDoc(y.WithClientID(2))
	insertText(t, docA, "text", 0, "default v2")

	update, err := y.EncodeStateAsUpdate(docA, nil)
	if err != nil {
		t.Fatal(err)
	}
	if update[0] != 0xC1 {
		t.Fatalf("expected a v2 frame, first byte 0x%02X", update[0])
	}
	if err := y.ApplyUpdate(docB, update, nil); err != nil {
		t.Fatal(err)
	}
	if got := textContent(t, docB, "text"); got != "default v2" {
		t.Fatalf("expected %q, got %q", "default v2", got)
	}

	// 显式指定 v1 的路径不受默认值影响。
	explicit := y.NewDoc(y.WithClientID(3), y.WithCodec(y.V1Codec()))
	insertText(t, explicit, "text", 0, "still v1")
	v1Update, err := y.EncodeStateAsUpdate(explicit, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v1Update[0] == 0xC1 {
		t.Fatal("explicit v1 codec must not emit v2 frames")
	}
}
