package y

import "strings"

// Text 是共享文本类型。每个 rune 占一个时钟单位。
type Text struct {
	base *AbstractType
}

func NewText() *Text {
	return &Text{base: newAbstractType(TypeRefText)}
}

func (t *Text) Base() *AbstractType { return t.base }
func (t *Text) TypeRef() uint8      { return TypeRefText }

// Len 返回可见文本长度（rune 数）。
func (t *Text) Len() uint64 { return t.base.Length }

// Insert 在下标 index 处插入文本。
func (t *Text) Insert(txn *Transaction, index uint64, text string) error {
	if text == "" {
		return nil
	}
	return t.base.listInsert(txn, index, NewContentString(text))
}

// Delete 从下标 index 起删除 length 个 rune。
func (t *Text) Delete(txn *Transaction, index, length uint64) error {
	return t.base.listDelete(txn, index, length)
}

// InsertEmbed 在下标 index 处插入一个内嵌对象。
func (t *Text) InsertEmbed(txn *Transaction, index uint64, embed any) error {
	return t.base.listInsert(txn, index, NewContentEmbed(embed))
}

// String 拼出当前可见文本。
func (t *Text) String() string {
	var sb strings.Builder
	for n := t.base.Start; n != nil; n = n.right {
		if n.deleted {
			continue
		}
		if cs, ok := n.Content.(*ContentString); ok {
			sb.WriteString(cs.String())
		}
	}
	return sb.String()
}
