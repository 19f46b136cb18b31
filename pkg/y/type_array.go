package y

// Array 是共享数组类型。
type Array struct {
	base *AbstractType
}

func NewArray() *Array {
	return &Array{base: newAbstractType(TypeRefArray)}
}

func (a *Array) Base() *AbstractType { return a.base }
func (a *Array) TypeRef() uint8      { return TypeRefArray }

// Len 返回可见元素个数。
func (a *Array) Len() uint64 { return a.base.Length }

// Insert 在下标 index 处插入一组值。
func (a *Array) Insert(txn *Transaction, index uint64, values []any) error {
	if len(values) == 0 {
		return nil
	}
	// 共享类型必须独占一个条目，普通值合并进同一个条目。
	var plain []any
	flushPlain := func() error {
		if len(plain) == 0 {
			return nil
		}
		if err := a.base.listInsert(txn, index, NewContentAny(plain)); err != nil {
			return err
		}
		index += uint64(len(plain))
		plain = nil
		return nil
	}
	for _, v := range values {
		if st, ok := v.(SharedType); ok {
			if err := flushPlain(); err != nil {
				return err
			}
			if err := a.base.listInsert(txn, index, NewContentType(st)); err != nil {
				return err
			}
			index++
			continue
		}
		plain = append(plain, v)
	}
	return flushPlain()
}

// Push 在末尾追加一组值。
func (a *Array) Push(txn *Transaction, values []any) error {
	return a.Insert(txn, a.base.Length, values)
}

// Delete 从下标 index 起删除 length 个元素。
func (a *Array) Delete(txn *Transaction, index, length uint64) error {
	return a.base.listDelete(txn, index, length)
}

// ToArray 返回当前可见元素。
func (a *Array) ToArray() []any {
	out := make([]any, 0, a.base.Length)
	for n := a.base.Start; n != nil; n = n.right {
		if n.deleted || !n.Countable() {
			continue
		}
		out = append(out, n.Content.Values()...)
	}
	return out
}
