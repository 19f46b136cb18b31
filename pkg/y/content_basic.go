package y

import (
	"encoding/json"
	"unicode/utf8"
)

// ContentDeleted 占位已删除的内容，只保留长度。
type ContentDeleted struct {
	length uint64
}

func NewContentDeleted(length uint64) *ContentDeleted {
	return &ContentDeleted{length: length}
}

func (c *ContentDeleted) Len() uint64     { return c.length }
func (c *ContentDeleted) Countable() bool { return false }

func (c *ContentDeleted) Splice(offset uint64) Content {
	right := &ContentDeleted{length: c.length - offset}
	c.length = offset
	return right
}

func (c *ContentDeleted) Integrate(txn *Transaction, item *Item) {
	// 内容在源头已删除，落地即为删除态。
	txn.DeleteSet.Add(item.id.Client, item.id.Clock, c.length)
	item.deleted = true
}

func (c *ContentDeleted) Delete(txn *Transaction) {}

func (c *ContentDeleted) Write(enc UpdateEncoder, offset uint64) error {
	enc.WriteLen(c.length - offset)
	return nil
}

func (c *ContentDeleted) Ref() uint8    { return contentRefDeleted }
func (c *ContentDeleted) Values() []any { return nil }

func readContentDeleted(dec UpdateDecoder) (Content, error) {
	l, err := dec.ReadLen()
	if err != nil {
		return nil, err
	}
	return &ContentDeleted{length: l}, nil
}

// ContentJSON 承载一列 JSON 值，每个值占一个时钟单位。
type ContentJSON struct {
	vals []any
}

func NewContentJSON(vals []any) *ContentJSON {
	return &ContentJSON{vals: vals}
}

func (c *ContentJSON) Len() uint64     { return uint64(len(c.vals)) }
func (c *ContentJSON) Countable() bool { return true }

func (c *ContentJSON) Splice(offset uint64) Content {
	right := &ContentJSON{vals: append([]any(nil), c.vals[offset:]...)}
	c.vals = c.vals[:offset:offset]
	return right
}

func (c *ContentJSON) Integrate(txn *Transaction, item *Item) {}
func (c *ContentJSON) Delete(txn *Transaction)                {}

func (c *ContentJSON) Write(enc UpdateEncoder, offset uint64) error {
	enc.WriteLen(uint64(len(c.vals)) - offset)
	for i := offset; i < uint64(len(c.vals)); i++ {
		if c.vals[i] == nil {
			enc.WriteString("undefined")
			continue
		}
		b, err := json.Marshal(c.vals[i])
		if err != nil {
			return err
		}
		enc.WriteString(string(b))
	}
	return nil
}

func (c *ContentJSON) Ref() uint8    { return contentRefJSON }
func (c *ContentJSON) Values() []any { return c.vals }

func readContentJSON(dec UpdateDecoder) (Content, error) {
	n, err := dec.ReadLen()
	if err != nil {
		return nil, err
	}
	vals := make([]any, 0, n)
	for i := uint64(0); i < n; i++ {
		s, err := dec.ReadString()
		if err != nil {
			return nil, err
		}
		if s == "undefined" {
			vals = append(vals, nil)
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return &ContentJSON{vals: vals}, nil
}

// ContentBinary 承载一段不透明字节，占一个时钟单位。
type ContentBinary struct {
	data []byte
}

func NewContentBinary(data []byte) *ContentBinary {
	return &ContentBinary{data: data}
}

func (c *ContentBinary) Len() uint64                            { return 1 }
func (c *ContentBinary) Countable() bool                        { return true }
func (c *ContentBinary) Splice(offset uint64) Content           { return nil }
func (c *ContentBinary) Integrate(txn *Transaction, item *Item) {}
func (c *ContentBinary) Delete(txn *Transaction)                {}

func (c *ContentBinary) Write(enc UpdateEncoder, offset uint64) error {
	enc.WriteBuf(c.data)
	return nil
}

func (c *ContentBinary) Ref() uint8    { return contentRefBinary }
func (c *ContentBinary) Values() []any { return []any{c.data} }

func readContentBinary(dec UpdateDecoder) (Content, error) {
	b, err := dec.ReadBuf()
	if err != nil {
		return nil, err
	}
	return &ContentBinary{data: b}, nil
}

// ContentString 承载一段文本，每个 rune 占一个时钟单位。
type ContentString struct {
	str string
}

func NewContentString(s string) *ContentString {
	return &ContentString{str: s}
}

func (c *ContentString) Len() uint64     { return uint64(utf8.RuneCountInString(c.str)) }
func (c *ContentString) Countable() bool { return true }

func (c *ContentString) Splice(offset uint64) Content {
	runes := []rune(c.str)
	right := &ContentString{str: string(runes[offset:])}
	c.str = string(runes[:offset])
	return right
}

func (c *ContentString) Integrate(txn *Transaction, item *Item) {}
func (c *ContentString) Delete(txn *Transaction)                {}

func (c *ContentString) Write(enc UpdateEncoder, offset uint64) error {
	if offset == 0 {
		enc.WriteString(c.str)
		return nil
	}
	runes := []rune(c.str)
	enc.WriteString(string(runes[offset:]))
	return nil
}

func (c *ContentString) Ref() uint8 { return contentRefString }

func (c *ContentString) Values() []any {
	runes := []rune(c.str)
	vals := make([]any, len(runes))
	for i, r := range runes {
		vals[i] = string(r)
	}
	return vals
}

// String 返回承载的文本。
func (c *ContentString) String() string { return c.str }

func readContentString(dec UpdateDecoder) (Content, error) {
	s, err := dec.ReadString()
	if err != nil {
		return nil, err
	}
	return &ContentString{str: s}, nil
}
