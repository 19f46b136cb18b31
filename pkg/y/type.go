package y

import "fmt"

// 共享类型在 wire 上的编号。
const (
	TypeRefArray uint8 = 0
	TypeRefMap   uint8 = 1
	TypeRefText  uint8 = 2

	// typeRefUnspecified 标记尚未被具体类型认领的根。
	typeRefUnspecified uint8 = 0xFF
)

// SharedType 是所有共享类型的公共面。
type SharedType interface {
	// Base 返回类型的结构层状态。
	Base() *AbstractType
	// TypeRef 返回类型的 wire 编号。
	TypeRef() uint8
}

// AbstractType 保存共享类型的结构层状态：列表头、键映射与可见长度。
// 具体类型 (Text/Array/Map) 只是它上面的操作面。
type AbstractType struct {
	// Item 是创建该类型的操作；根类型为 nil。
	Item *Item
	// Map 按 parentSub 键保存当前（最右）条目。
	Map map[string]*Item
	// Start 是列表双向链的第一个条目。
	Start *Item
	// Length 是可见（未删除且可计数）长度。
	Length uint64
	// Doc 是类型挂靠的文档。
	Doc *Doc

	ref uint8
}

func newAbstractType(ref uint8) *AbstractType {
	return &AbstractType{Map: make(map[string]*Item), ref: ref}
}

func (t *AbstractType) Base() *AbstractType { return t }
func (t *AbstractType) TypeRef() uint8      { return t.ref }

// newTypeFromRef 按 wire 编号构造空的共享类型。
func newTypeFromRef(ref uint8) (SharedType, error) {
	switch ref {
	case TypeRefArray:
		return NewArray(), nil
	case TypeRefMap:
		return NewMap(), nil
	case TypeRefText:
		return NewText(), nil
	default:
		return nil, fmt.Errorf("unknown type ref %d", ref)
	}
}

// findRootTypeKey 反查根类型在文档里的注册名。
func findRootTypeKey(base *AbstractType) (string, error) {
	if base.Doc == nil {
		return "", ErrUnexpectedCase
	}
	for name, st := range base.Doc.Share {
		if st.Base() == base {
			return name, nil
		}
	}
	return "", ErrUnexpectedCase
}

// listSeek 定位列表下标 index 处的插入点，必要时切分条目。
// 返回的 left 是新条目的左邻居，可能为 nil。
func (t *AbstractType) listSeek(txn *Transaction, index uint64) (*Item, error) {
	var left *Item
	n := t.Start
	for n != nil && index > 0 {
		if !n.deleted && n.Countable() {
			if index < n.Length() {
				if _, err := txn.Doc.Store.SplitAt(txn, n, index); err != nil {
					return nil, err
				}
			}
			index -= n.Length()
		}
		left = n
		n = n.right
	}
	if index > 0 {
		return nil, ErrIndexOutOfRange
	}
	return left, nil
}

// listInsert 在 index 处插入内容并立即集成。
func (t *AbstractType) listInsert(txn *Transaction, index uint64, content Content) error {
	left, err := t.listSeek(txn, index)
	if err != nil {
		return err
	}
	return t.insertAfter(txn, left, "", content)
}

// insertAfter 在 left 之后插入内容。
func (t *AbstractType) insertAfter(txn *Transaction, left *Item, parentSub string, content Content) error {
	doc := txn.Doc
	var right *Item
	if left != nil {
		right = left.right
	} else if parentSub != "" {
		right = t.Map[parentSub]
		for right != nil && right.left != nil {
			right = right.left
		}
	} else {
		right = t.Start
	}
	var origin, rightOrigin *ID
	if left != nil {
		last := left.LastID()
		origin = &last
	}
	if right != nil {
		rid := right.id
		rightOrigin = &rid
	}
	id := ID{Client: doc.ClientID, Clock: doc.Store.GetState(doc.ClientID)}
	item := NewItem(id, left, origin, right, rightOrigin, t, parentSub, content)
	return item.Integrate(txn, 0)
}

// listDelete 从 index 起删除 length 个可见单位。
func (t *AbstractType) listDelete(txn *Transaction, index, length uint64) error {
	if length == 0 {
		return nil
	}
	store := txn.Doc.Store
	var n *Item
	left, err := t.listSeek(txn, index)
	if err != nil {
		return err
	}
	if left != nil {
		n = left.right
	} else {
		n = t.Start
	}
	for length > 0 && n != nil {
		if !n.deleted && n.Countable() {
			if length < n.Length() {
				if _, err := store.SplitAt(txn, n, length); err != nil {
					return err
				}
			}
			length -= n.Length()
			n.Delete(txn)
		}
		n = n.right
	}
	if length > 0 {
		return ErrIndexOutOfRange
	}
	return nil
}

// mapSet 把键设为新内容，旧条目在集成时转为删除态。
func (t *AbstractType) mapSet(txn *Transaction, key string, content Content) error {
	left := t.Map[key]
	return t.insertAfter(txn, left, key, content)
}

// mapGet 返回键的当前值。
func (t *AbstractType) mapGet(key string) (any, bool) {
	it, ok := t.Map[key]
	if !ok || it.deleted {
		return nil, false
	}
	vals := it.Content.Values()
	if len(vals) == 0 {
		return nil, false
	}
	return vals[len(vals)-1], true
}

// contentFromValue 把用户值装箱成内容。共享类型走 ContentType，
// 其余统一走 ContentAny。
func contentFromValue(v any) Content {
	if st, ok := v.(SharedType); ok {
		return NewContentType(st)
	}
	return NewContentAny([]any{v})
}
