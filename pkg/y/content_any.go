package y

// ContentAny 承载一列任意值，每个值占一个时钟单位。
type ContentAny struct {
	vals []any
}

func NewContentAny(vals []any) *ContentAny {
	return &ContentAny{vals: vals}
}

func (c *ContentAny) Len() uint64     { return uint64(len(c.vals)) }
func (c *ContentAny) Countable() bool { return true }

func (c *ContentAny) Splice(offset uint64) Content {
	right := &ContentAny{vals: append([]any(nil), c.vals[offset:]...)}
	c.vals = c.vals[:offset:offset]
	return right
}

func (c *ContentAny) Integrate(txn *Transaction, item *Item) {}
func (c *ContentAny) Delete(txn *Transaction)                {}

func (c *ContentAny) Write(enc UpdateEncoder, offset uint64) error {
	enc.WriteLen(uint64(len(c.vals)) - offset)
	for i := offset; i < uint64(len(c.vals)); i++ {
		if err := enc.WriteAny(c.vals[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *ContentAny) Ref() uint8    { return contentRefAny }
func (c *ContentAny) Values() []any { return c.vals }

func readContentAny(dec UpdateDecoder) (Content, error) {
	n, err := dec.ReadLen()
	if err != nil {
		return nil, err
	}
	vals := make([]any, 0, n)
	for i := uint64(0); i < n; i++ {
		v, err := dec.ReadAny()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return &ContentAny{vals: vals}, nil
}

// ContentEmbed 承载一个内嵌对象，占一个时钟单位。
type ContentEmbed struct {
	val any
}

func NewContentEmbed(val any) *ContentEmbed {
	return &ContentEmbed{val: val}
}

func (c *ContentEmbed) Len() uint64                            { return 1 }
func (c *ContentEmbed) Countable() bool                        { return true }
func (c *ContentEmbed) Splice(offset uint64) Content           { return nil }
func (c *ContentEmbed) Integrate(txn *Transaction, item *Item) {}
func (c *ContentEmbed) Delete(txn *Transaction)                {}

func (c *ContentEmbed) Write(enc UpdateEncoder, offset uint64) error {
	return enc.WriteJSON(c.val)
}

func (c *ContentEmbed) Ref() uint8    { return contentRefEmbed }
func (c *ContentEmbed) Values() []any { return []any{c.val} }

func readContentEmbed(dec UpdateDecoder) (Content, error) {
	v, err := dec.ReadJSON()
	if err != nil {
		return nil, err
	}
	return &ContentEmbed{val: v}, nil
}

// ContentFormat 承载一条格式标记，不计入可见长度。
type ContentFormat struct {
	key string
	val any
}

func NewContentFormat(key string, val any) *ContentFormat {
	return &ContentFormat{key: key, val: val}
}

func (c *ContentFormat) Len() uint64                            { return 1 }
func (c *ContentFormat) Countable() bool                        { return false }
func (c *ContentFormat) Splice(offset uint64) Content           { return nil }
func (c *ContentFormat) Integrate(txn *Transaction, item *Item) {}
func (c *ContentFormat) Delete(txn *Transaction)                {}

func (c *ContentFormat) Write(enc UpdateEncoder, offset uint64) error {
	enc.WriteKey(c.key)
	return enc.WriteJSON(c.val)
}

func (c *ContentFormat) Ref() uint8    { return contentRefFormat }
func (c *ContentFormat) Values() []any { return nil }

func readContentFormat(dec UpdateDecoder) (Content, error) {
	key, err := dec.ReadKey()
	if err != nil {
		return nil, err
	}
	val, err := dec.ReadJSON()
	if err != nil {
		return nil, err
	}
	return &ContentFormat{key: key, val: val}, nil
}
