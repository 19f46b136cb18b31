package y_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/suryatmodulus/yjs/pkg/y"
)

func newTestDoc(t *testing.T, clientID uint64) *y.Doc {
	t.Helper()
	return y.NewDoc(y.WithClientID(clientID), y.WithCodec(y.V1Codec()))
}

func insertText(t *testing.T, doc *y.Doc, name string, index uint64, text string) {
	t.Helper()
	err := doc.Transact(func(txn *y.Transaction) error {
		txt, err := doc.GetText(name)
		if err != nil {
			return err
		}
		return txt.Insert(txn, index, text)
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
}

func textContent(t *testing.T, doc *y.Doc, name string) string {
	t.Helper()
	txt, err := doc.GetText(name)
	if err != nil {
		t.Fatalf("GetText failed: %v", err)
	}
	return txt.String()
}

func encodeV1(t *testing.T, doc *y.Doc, sv []byte) []byte {
	t.Helper()
	update, err := y.EncodeStateAsUpdateWithCodec(doc, sv, y.V1Codec())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	return update
}

func applyV1(t *testing.T, doc *y.Doc, update []byte) {
	t.Helper()
	if err := y.ApplyUpdateWithCodec(doc, update, nil, y.V1Codec()); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
}

func TestSingleStructUpdate(t *testing.T) {
	docA := newTestDoc(t, 7)
	insertText(t, docA, "text", 0, "a")

	update := encodeV1(t, docA, nil)
	// [numClients=1][numStructs=1][client=7][clock=0][info=4 string content]
	if update[0] != 1 || update[1] != 1 || update[2] != 7 || update[3] != 0 || update[4] != 4 {
		t.Fatalf("unexpected update header: %v", update[:5])
	}

	docB := newTestDoc(t, 8)
	applyV1(t, docB, update)
	if state := docB.Store.GetState(7); state != 1 {
		t.Fatalf("expected state(7)=1, got %d", state)
	}
	if got := textContent(t, docB, "text"); got != "a" {
		t.Fatalf("expected %q, got %q", "a", got)
	}

	reencoded := encodeV1(t, docB, nil)
	if !bytes.Equal(update, reencoded) {
		t.Fatalf("re-encoding differs:\n  %v\n  %v", update, reencoded)
	}
}

func TestEmptyDocUpdate(t *testing.T) {
	docA := newTestDoc(t, 1)
	update := encodeV1(t, docA, nil)
	docB := newTestDoc(t, 2)
	applyV1(t, docB, update)
	if len(docB.Store.Clients) != 0 {
		t.Fatal("empty update should not create structs")
	}
}

func TestRoundTrip(t *testing.T) {
	docA := newTestDoc(t, 11)
	insertText(t, docA, "text", 0, "hello")
	insertText(t, docA, "text", 5, " world")

	docB := newTestDoc(t, 12)
	applyV1(t, docB, encodeV1(t, docA, nil))

	if got := textContent(t, docB, "text"); got != "hello world" {
		t.Fatalf("expected %q, got %q", "hello world", got)
	}
	if !bytes.Equal(encodeV1(t, docA, nil), encodeV1(t, docB, nil)) {
		t.Fatal("docs should re-encode identically")
	}
}

func TestIncrementalRoundTrip(t *testing.T) {
	docA := newTestDoc(t, 21)
	docB := newTestDoc(t, 22)

	insertText(t, docA, "text", 0, "base")
	applyV1(t, docB, encodeV1(t, docA, nil))

	insertText(t, docA, "text", 4, " more")
	diff := encodeV1(t, docA, y.EncodeStateVector(docB))
	applyV1(t, docB, diff)

	if got := textContent(t, docB, "text"); got != "base more" {
		t.Fatalf("expected %q, got %q", "base more", got)
	}
}

func TestStateVectorGuidedUpdateIsPartial(t *testing.T) {
	docA := newTestDoc(t, 7)
	insertText(t, docA, "text", 0, "abc")

	sv := stateVectorBytes(t, map[uint64]uint64{7: 1})
	update := encodeV1(t, docA, sv)

	// 块从 clock=1 开始，只覆盖 1..2。
	if update[0] != 1 || update[1] != 1 || update[2] != 7 || update[3] != 1 {
		t.Fatalf("unexpected update header: %v", update[:4])
	}

	docB := newTestDoc(t, 8)
	applyV1(t, docB, update)
	if state := docB.Store.GetState(7); state != 0 {
		t.Fatalf("gapped update must stay pending, state=%d", state)
	}
}

func stateVectorBytes(t *testing.T, sv map[uint64]uint64) []byte {
	t.Helper()
	// 布局: varuint(n) (client clock)^n，所有测试值都在单字节范围内。
	out := []byte{byte(len(sv))}
	for client, clock := range sv {
		out = append(out, byte(client), byte(clock))
	}
	return out
}

func TestGapBufferingAndResume(t *testing.T) {
	docA := newTestDoc(t, 7)
	insertText(t, docA, "text", 0, "ab")
	u01 := encodeV1(t, docA, nil)
	insertText(t, docA, "text", 2, "cde")
	u24 := encodeV1(t, docA, stateVectorBytes(t, map[uint64]uint64{7: 2}))
	insertText(t, docA, "text", 5, "f")
	u5 := encodeV1(t, docA, stateVectorBytes(t, map[uint64]uint64{7: 5}))

	docC := newTestDoc(t, 9)
	applyV1(t, docC, u01)
	if state := docC.Store.GetState(7); state != 2 {
		t.Fatalf("expected state 2, got %d", state)
	}

	// clock 5 在 2..4 之前到达：缓冲，状态不变。
	applyV1(t, docC, u5)
	if state := docC.Store.GetState(7); state != 2 {
		t.Fatalf("expected state to remain 2, got %d", state)
	}
	if len(docC.Store.PendingStack) == 0 {
		t.Fatal("expected the blocked struct to stay on the pending stack")
	}

	// 缺口补上后一次性推进到 6。
	applyV1(t, docC, u24)
	if state := docC.Store.GetState(7); state != 6 {
		t.Fatalf("expected state 6, got %d", state)
	}
	if got := textContent(t, docC, "text"); got != "abcdef" {
		t.Fatalf("expected %q, got %q", "abcdef", got)
	}
	if len(docC.Store.PendingStack) != 0 || len(docC.Store.PendingClientsStructRefs) != 0 {
		t.Fatal("pending area should be drained")
	}
}

func TestCausalDeferralAcrossClients(t *testing.T) {
	docA := newTestDoc(t, 1)
	insertText(t, docA, "text", 0, "x")
	uA := encodeV1(t, docA, nil)

	docB := newTestDoc(t, 2)
	applyV1(t, docB, uA)
	insertText(t, docB, "text", 1, "y")
	uB := encodeV1(t, docB, stateVectorBytes(t, map[uint64]uint64{1: 1}))

	// 先到 uB：其 leftOrigin 指向 1:0，必须等待。
	docC := newTestDoc(t, 3)
	applyV1(t, docC, uB)
	if state := docC.Store.GetState(2); state != 0 {
		t.Fatalf("dependent struct must stay buffered, state=%d", state)
	}

	applyV1(t, docC, uA)
	if state := docC.Store.GetState(1); state != 1 {
		t.Fatalf("expected state(1)=1, got %d", state)
	}
	if state := docC.Store.GetState(2); state != 1 {
		t.Fatalf("expected state(2)=1, got %d", state)
	}
	if got := textContent(t, docC, "text"); got != "xy" {
		t.Fatalf("expected %q, got %q", "xy", got)
	}
}

func TestCommutativity(t *testing.T) {
	docA := newTestDoc(t, 1)
	insertText(t, docA, "text", 0, "aaa")
	uA := encodeV1(t, docA, nil)

	docB := newTestDoc(t, 2)
	insertText(t, docB, "text", 0, "bbb")
	uB := encodeV1(t, docB, nil)

	doc1 := newTestDoc(t, 10)
	applyV1(t, doc1, uA)
	applyV1(t, doc1, uB)

	doc2 := newTestDoc(t, 11)
	applyV1(t, doc2, uB)
	applyV1(t, doc2, uA)

	s1, s2 := textContent(t, doc1, "text"), textContent(t, doc2, "text")
	if s1 != s2 {
		t.Fatalf("orders disagree: %q vs %q", s1, s2)
	}
	if !bytes.Equal(encodeV1(t, doc1, nil), encodeV1(t, doc2, nil)) {
		t.Fatal("stores should re-encode identically regardless of order")
	}
}

func TestIdempotence(t *testing.T) {
	docA := newTestDoc(t, 5)
	insertText(t, docA, "text", 0, "abc")
	update := encodeV1(t, docA, nil)

	docB := newTestDoc(t, 6)
	applyV1(t, docB, update)
	once := encodeV1(t, docB, nil)
	applyV1(t, docB, update)
	twice := encodeV1(t, docB, nil)

	if !bytes.Equal(once, twice) {
		t.Fatal("re-applying the same update must not change the store")
	}
	if len(docB.Store.PendingClientsStructRefs) != 0 || len(docB.Store.PendingStack) != 0 {
		t.Fatal("duplicate update must not leave pending work")
	}
}

func TestResumabilityAtRecordBoundaries(t *testing.T) {
	docA := newTestDoc(t, 4)
	insertText(t, docA, "text", 0, "ab")
	prefix := encodeV1(t, docA, nil)
	insertText(t, docA, "text", 2, "cd")
	suffix := encodeV1(t, docA, stateVectorBytes(t, map[uint64]uint64{4: 2}))
	full := encodeV1(t, docA, nil)

	split := newTestDoc(t, 20)
	applyV1(t, split, prefix)
	applyV1(t, split, suffix)

	oneShot := newTestDoc(t, 21)
	applyV1(t, oneShot, full)

	if a, b := textContent(t, split, "text"), textContent(t, oneShot, "text"); a != b {
		t.Fatalf("split application diverged: %q vs %q", a, b)
	}
	if !bytes.Equal(encodeV1(t, split, nil), encodeV1(t, oneShot, nil)) {
		t.Fatal("split and one-shot application should produce identical stores")
	}
}

func TestStateVectorMonotonicity(t *testing.T) {
	docA := newTestDoc(t, 7)
	insertText(t, docA, "text", 0, "abc")
	u1 := encodeV1(t, docA, nil)
	insertText(t, docA, "text", 0, "z")
	u2 := encodeV1(t, docA, nil)

	docB := newTestDoc(t, 8)
	prev := uint64(0)
	for _, u := range [][]byte{u1, u2, u1} {
		applyV1(t, docB, u)
		state := docB.Store.GetState(7)
		if state < prev {
			t.Fatalf("state went backwards: %d -> %d", prev, state)
		}
		prev = state
	}
}

func TestPendingCleanupInvariant(t *testing.T) {
	docA := newTestDoc(t, 7)
	insertText(t, docA, "text", 0, "abcdef")
	gapped := encodeV1(t, docA, stateVectorBytes(t, map[uint64]uint64{7: 3}))

	docB := newTestDoc(t, 8)
	applyV1(t, docB, gapped)
	// 重复送达：阻塞结构已在栈上，副本条目留在待集成区等待缺口。
	applyV1(t, docB, gapped)
	if len(docB.Store.PendingClientsStructRefs) != 1 {
		t.Fatalf("expected one pending client entry, got %d", len(docB.Store.PendingClientsStructRefs))
	}
	for client, refs := range docB.Store.PendingClientsStructRefs {
		if refs.NextIdx != 0 {
			t.Fatalf("client %d: cursor not reset: %d", client, refs.NextIdx)
		}
		if len(refs.Refs) == 0 {
			t.Fatalf("client %d: empty pending entry survived cleanup", client)
		}
	}
}

func TestMalformedUpdateRejected(t *testing.T) {
	docA := newTestDoc(t, 7)
	insertText(t, docA, "text", 0, "abc")
	update := encodeV1(t, docA, nil)

	docB := newTestDoc(t, 8)
	err := y.ApplyUpdateWithCodec(docB, update[:len(update)-3], nil, y.V1Codec())
	if !errors.Is(err, y.ErrMalformedUpdate) {
		t.Fatalf("expected ErrMalformedUpdate, got %v", err)
	}
	if len(docB.Store.Clients) != 0 {
		t.Fatal("malformed update must leave the store untouched")
	}

	// 未知 content 标签同样拒绝。
	bad := []byte{1, 1, 7, 0, 0x1F, 1, 1, 'x'}
	if err := y.ApplyUpdateWithCodec(docB, bad, nil, y.V1Codec()); !errors.Is(err, y.ErrMalformedUpdate) {
		t.Fatalf("expected ErrMalformedUpdate for unknown content tag, got %v", err)
	}
}

func TestTombstoneBlock(t *testing.T) {
	enc := y.NewUpdateEncoderV1()
	enc.RestEncoder().WriteVarUint(1) // 副本数
	enc.RestEncoder().WriteVarUint(1) // 结构数
	enc.WriteClient(9)
	enc.RestEncoder().WriteVarUint(0) // 起始 clock
	gc := y.NewGC(y.ID{Client: 9, Clock: 0}, 4)
	if err := gc.Write(enc, 0); err != nil {
		t.Fatalf("gc write failed: %v", err)
	}
	enc.RestEncoder().WriteVarUint(0) // 空删除集

	doc := newTestDoc(t, 1)
	applyV1(t, doc, enc.Bytes())
	if state := doc.Store.GetState(9); state != 4 {
		t.Fatalf("expected tombstone to reserve clocks 0..3, state=%d", state)
	}
}
