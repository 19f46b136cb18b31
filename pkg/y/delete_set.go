package y

import "sort"

// DeleteItem 是一段连续的已删除时钟区间。
type DeleteItem struct {
	Clock uint64
	Len   uint64
}

// DeleteSet 按副本记录已删除的区间，写入前需 SortAndMerge。
type DeleteSet struct {
	Clients map[uint64][]DeleteItem
}

func NewDeleteSet() *DeleteSet {
	return &DeleteSet{Clients: make(map[uint64][]DeleteItem)}
}

// Add 追加一段删除区间。
func (ds *DeleteSet) Add(client, clock, length uint64) {
	ds.Clients[client] = append(ds.Clients[client], DeleteItem{Clock: clock, Len: length})
}

// IsEmpty 报告删除集是否为空。
func (ds *DeleteSet) IsEmpty() bool {
	return len(ds.Clients) == 0
}

// IsDeleted 报告 id 是否落在某个删除区间内。
func (ds *DeleteSet) IsDeleted(id ID) bool {
	for _, di := range ds.Clients[id.Client] {
		if id.Clock >= di.Clock && id.Clock < di.Clock+di.Len {
			return true
		}
	}
	return false
}

// SortAndMerge 排序并合并相邻或重叠的区间。
func (ds *DeleteSet) SortAndMerge() {
	for client, dels := range ds.Clients {
		sort.Slice(dels, func(i, j int) bool { return dels[i].Clock < dels[j].Clock })
		merged := dels[:0]
		for _, d := range dels {
			if n := len(merged); n > 0 && merged[n-1].Clock+merged[n-1].Len >= d.Clock {
				end := d.Clock + d.Len
				if prevEnd := merged[n-1].Clock + merged[n-1].Len; prevEnd > end {
					end = prevEnd
				}
				merged[n-1].Len = end - merged[n-1].Clock
				continue
			}
			merged = append(merged, d)
		}
		ds.Clients[client] = merged
	}
}

// NewDeleteSetFromStructStore 扫描存储，把相邻的删除态结构折叠成区间。
func NewDeleteSetFromStructStore(ss *StructStore) *DeleteSet {
	ds := NewDeleteSet()
	for client, structs := range ss.Clients {
		var dels []DeleteItem
		for i := 0; i < len(structs); i++ {
			s := structs[i]
			if !s.Deleted() {
				continue
			}
			clock := s.ID().Clock
			length := s.Length()
			for i+1 < len(structs) && structs[i+1].Deleted() {
				i++
				length += structs[i].Length()
			}
			dels = append(dels, DeleteItem{Clock: clock, Len: length})
		}
		if len(dels) > 0 {
			ds.Clients[client] = dels
		}
	}
	return ds
}

// WriteDeleteSet 把删除集写入编码器。副本按编号降序排列，
// 与结构段的顺序一致，保证重复编码字节一致。
func WriteDeleteSet(enc DSEncoder, ds *DeleteSet) {
	enc.RestEncoder().WriteVarUint(uint64(len(ds.Clients)))
	clients := make([]uint64, 0, len(ds.Clients))
	for client := range ds.Clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i] > clients[j] })
	for _, client := range clients {
		dels := ds.Clients[client]
		enc.ResetDsCurVal()
		enc.RestEncoder().WriteVarUint(client)
		enc.RestEncoder().WriteVarUint(uint64(len(dels)))
		for _, d := range dels {
			enc.WriteDsClock(d.Clock)
			enc.WriteDsLen(d.Len)
		}
	}
}

// ReadDeleteSet 从解码器读出删除集，不触碰存储。
func ReadDeleteSet(dec DSDecoder) (*DeleteSet, error) {
	ds := NewDeleteSet()
	numClients, err := dec.RestDecoder().ReadVarUint()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < numClients; i++ {
		dec.ResetDsCurVal()
		client, err := dec.RestDecoder().ReadVarUint()
		if err != nil {
			return nil, err
		}
		numDels, err := dec.RestDecoder().ReadVarUint()
		if err != nil {
			return nil, err
		}
		if numDels == 0 {
			continue
		}
		dels := make([]DeleteItem, 0, numDels)
		for j := uint64(0); j < numDels; j++ {
			clock, err := dec.ReadDsClock()
			if err != nil {
				return nil, err
			}
			l, err := dec.ReadDsLen()
			if err != nil {
				return nil, err
			}
			dels = append(dels, DeleteItem{Clock: clock, Len: l})
		}
		ds.Clients[client] = append(ds.Clients[client], dels...)
	}
	return ds, nil
}

// applyDeleteSet 把删除集套到存储上。落在已集成区间内的删除立即生效，
// 超出当前状态的部分作为剩余删除集返回，由调用方延后重放。
func applyDeleteSet(txn *Transaction, store *StructStore, ds *DeleteSet) (*DeleteSet, error) {
	leftover := NewDeleteSet()
	for client, dels := range ds.Clients {
		state := store.GetState(client)
		for _, d := range dels {
			clock := d.Clock
			endClock := clock + d.Len
			if clock >= state {
				leftover.Add(client, clock, d.Len)
				continue
			}
			if endClock > state {
				leftover.Add(client, state, endClock-state)
				endClock = state
			}
			index, err := store.FindIndexCleanStart(txn, client, clock)
			if err != nil {
				return nil, err
			}
			for index < len(store.Clients[client]) {
				s := store.Clients[client][index]
				if s.ID().Clock >= endClock {
					break
				}
				if it, ok := s.(*Item); ok && !it.deleted {
					if endClock < it.id.Clock+it.Length() {
						if _, err := store.FindIndexCleanStart(txn, client, endClock); err != nil {
							return nil, err
						}
					}
					it.Delete(txn)
				}
				index++
			}
		}
	}
	if leftover.IsEmpty() {
		return nil, nil
	}
	return leftover, nil
}
