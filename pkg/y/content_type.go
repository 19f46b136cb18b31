package y

// ContentType 承载一个嵌套的共享类型，占一个时钟单位。
type ContentType struct {
	t SharedType
}

func NewContentType(t SharedType) *ContentType {
	return &ContentType{t: t}
}

// Type 返回承载的共享类型。
func (c *ContentType) Type() SharedType { return c.t }

func (c *ContentType) Len() uint64                  { return 1 }
func (c *ContentType) Countable() bool              { return true }
func (c *ContentType) Splice(offset uint64) Content { return nil }

func (c *ContentType) Integrate(txn *Transaction, item *Item) {
	base := c.t.Base()
	base.Item = item
	base.Doc = txn.Doc
}

func (c *ContentType) Delete(txn *Transaction) {
	// 删除嵌套类型时级联删除其全部子项。
	base := c.t.Base()
	for n := base.Start; n != nil; n = n.right {
		if !n.deleted {
			n.Delete(txn)
		}
	}
	for _, it := range base.Map {
		if !it.deleted {
			it.Delete(txn)
		}
	}
}

func (c *ContentType) Write(enc UpdateEncoder, offset uint64) error {
	enc.WriteTypeRef(c.t.TypeRef())
	return nil
}

func (c *ContentType) Ref() uint8    { return contentRefType }
func (c *ContentType) Values() []any { return []any{c.t} }

func readContentType(dec UpdateDecoder) (Content, error) {
	ref, err := dec.ReadTypeRef()
	if err != nil {
		return nil, err
	}
	t, err := newTypeFromRef(ref)
	if err != nil {
		return nil, err
	}
	return &ContentType{t: t}, nil
}
