package y

// GC 是墓碑结构：内容已被丢弃，只为保持时钟区间连续而存在。
type GC struct {
	id     ID
	length uint64
}

func NewGC(id ID, length uint64) *GC {
	return &GC{id: id, length: length}
}

func (g *GC) ID() ID         { return g.id }
func (g *GC) Length() uint64 { return g.length }
func (g *GC) Deleted() bool  { return true }

func (g *GC) Write(enc UpdateEncoder, offset uint64) error {
	enc.WriteInfo(contentRefGC)
	enc.WriteLen(g.length - offset)
	return nil
}

func (g *GC) Integrate(txn *Transaction, offset uint64) error {
	if offset > 0 {
		g.id.Clock += offset
		g.length -= offset
	}
	return txn.Doc.Store.AddStruct(g)
}

func (g *GC) GetMissing(txn *Transaction, store *StructStore) (uint64, bool, error) {
	return 0, false, nil
}
