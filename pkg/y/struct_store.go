package y

import "fmt"

// StructStore 按副本保存已集成的结构列表，并携带跨调用的待集成区。
// 每个副本的列表按 clock 升序排列，集成完成后覆盖 [0, state) 无空洞。
type StructStore struct {
	Clients map[uint64][]Struct

	// 待集成区，见 pending.go。
	PendingClientsStructRefs map[uint64]*PendingStructRefs
	PendingStack             []Struct
	PendingDeleteReaders     [][]byte
}

func NewStructStore() *StructStore {
	return &StructStore{
		Clients:                  make(map[uint64][]Struct),
		PendingClientsStructRefs: make(map[uint64]*PendingStructRefs),
	}
}

// GetState 返回副本的下一个期望 clock。
func (ss *StructStore) GetState(client uint64) uint64 {
	structs := ss.Clients[client]
	if len(structs) == 0 {
		return 0
	}
	last := structs[len(structs)-1]
	return last.ID().Clock + last.Length()
}

// StateVector 返回所有已知副本的状态向量快照。
func (ss *StructStore) StateVector() map[uint64]uint64 {
	sv := make(map[uint64]uint64, len(ss.Clients))
	for client := range ss.Clients {
		sv[client] = ss.GetState(client)
	}
	return sv
}

// AddStruct 把结构追加到所属副本的列表末尾。
// 结构的 clock 必须正好接在当前状态之后。
func (ss *StructStore) AddStruct(s Struct) error {
	client := s.ID().Client
	if state := ss.GetState(client); s.ID().Clock != state {
		return fmt.Errorf("%w: struct %d/%d does not extend state %d", ErrUnexpectedCase, client, s.ID().Clock, state)
	}
	ss.Clients[client] = append(ss.Clients[client], s)
	return nil
}

// findIndexSS 二分查找覆盖 clock 的结构下标。
func findIndexSS(structs []Struct, clock uint64) (int, error) {
	left, right := 0, len(structs)-1
	for left <= right {
		mid := (left + right) / 2
		s := structs[mid]
		start := s.ID().Clock
		if start <= clock {
			if clock < start+s.Length() {
				return mid, nil
			}
			left = mid + 1
		} else {
			right = mid - 1
		}
	}
	return 0, fmt.Errorf("%w: clock %d", ErrStructNotFound, clock)
}

// Find 返回覆盖 id 的结构。
func (ss *StructStore) Find(id ID) (Struct, error) {
	structs := ss.Clients[id.Client]
	index, err := findIndexSS(structs, id.Clock)
	if err != nil {
		return nil, fmt.Errorf("client %d: %w", id.Client, err)
	}
	return structs[index], nil
}

// insertStruct 在 index 处插入结构。
func (ss *StructStore) insertStruct(client uint64, index int, s Struct) {
	structs := ss.Clients[client]
	structs = append(structs, nil)
	copy(structs[index+1:], structs[index:])
	structs[index] = s
	ss.Clients[client] = structs
}

// FindIndexCleanStart 返回从 clock 开始的结构下标，必要时切分 Item。
// 墓碑不切分，返回覆盖 clock 的墓碑下标。
func (ss *StructStore) FindIndexCleanStart(txn *Transaction, client uint64, clock uint64) (int, error) {
	structs := ss.Clients[client]
	index, err := findIndexSS(structs, clock)
	if err != nil {
		return 0, err
	}
	if it, ok := structs[index].(*Item); ok && it.id.Clock < clock {
		right := splitItem(it, clock-it.id.Clock)
		ss.insertStruct(client, index+1, right)
		return index + 1, nil
	}
	return index, nil
}

// GetItemCleanStart 返回正好从 id.Clock 开始的结构，必要时切分 Item；
// 墓碑不切分，原样返回。
func (ss *StructStore) GetItemCleanStart(txn *Transaction, id ID) (Struct, error) {
	index, err := ss.FindIndexCleanStart(txn, id.Client, id.Clock)
	if err != nil {
		return nil, err
	}
	return ss.Clients[id.Client][index], nil
}

// GetItemCleanEnd 返回正好结束于 id.Clock 的结构，必要时切分 Item；
// 墓碑不切分，原样返回。
func (ss *StructStore) GetItemCleanEnd(txn *Transaction, id ID) (Struct, error) {
	structs := ss.Clients[id.Client]
	index, err := findIndexSS(structs, id.Clock)
	if err != nil {
		return nil, err
	}
	s := structs[index]
	if it, ok := s.(*Item); ok && id.Clock != s.ID().Clock+s.Length()-1 {
		right := splitItem(it, id.Clock-it.id.Clock+1)
		ss.insertStruct(id.Client, index+1, right)
	}
	return ss.Clients[id.Client][index], nil
}

// SplitAt 在 diff 处切分 item 并维护存储列表。
func (ss *StructStore) SplitAt(txn *Transaction, item *Item, diff uint64) (*Item, error) {
	index, err := findIndexSS(ss.Clients[item.id.Client], item.id.Clock)
	if err != nil {
		return nil, err
	}
	right := splitItem(item, diff)
	ss.insertStruct(item.id.Client, index+1, right)
	return right, nil
}
