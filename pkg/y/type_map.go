package y

// Map 是共享映射类型。同一个键的并发写由副本编号决出唯一胜者。
type Map struct {
	base *AbstractType
}

func NewMap() *Map {
	return &Map{base: newAbstractType(TypeRefMap)}
}

func (m *Map) Base() *AbstractType { return m.base }
func (m *Map) TypeRef() uint8      { return TypeRefMap }

// Set 写入键值。
func (m *Map) Set(txn *Transaction, key string, value any) error {
	return m.base.mapSet(txn, key, contentFromValue(value))
}

// Get 读取键的当前值。
func (m *Map) Get(key string) (any, bool) {
	return m.base.mapGet(key)
}

// Delete 删除键。
func (m *Map) Delete(txn *Transaction, key string) error {
	it, ok := m.base.Map[key]
	if ok && !it.deleted {
		it.Delete(txn)
	}
	return nil
}

// Has 报告键当前是否存在。
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys 返回当前存在的键。
func (m *Map) Keys() []string {
	keys := make([]string, 0, len(m.base.Map))
	for key, it := range m.base.Map {
		if !it.deleted {
			keys = append(keys, key)
		}
	}
	return keys
}

// Len 返回当前存在的键数。
func (m *Map) Len() int {
	n := 0
	for _, it := range m.base.Map {
		if !it.deleted {
			n++
		}
	}
	return n
}
