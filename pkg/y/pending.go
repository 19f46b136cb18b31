package y

import "sort"

// PendingStructRefs 是某个副本已解析但尚未集成的结构列表。
// Refs 从 NextIdx 起按 clock 严格升序；之前的条目已被消费。
type PendingStructRefs struct {
	Refs    []Struct
	NextIdx int
}

// consumed 报告是否已无未消费条目。
func (p *PendingStructRefs) consumed() bool {
	return p.NextIdx >= len(p.Refs)
}

func sortStructsByClock(structs []Struct) {
	sort.Slice(structs, func(i, j int) bool {
		return structs[i].ID().Clock < structs[j].ID().Clock
	})
}

// mergeReadStructsIntoPendingReads 把一次解码得到的结构列表并入待集成区。
// 已消费的前缀被丢弃，保证待集成区的内存有界。
func mergeReadStructsIntoPendingReads(store *StructStore, clientsStructRefs map[uint64][]Struct) {
	pending := store.PendingClientsStructRefs
	for client, refs := range clientsStructRefs {
		existing, ok := pending[client]
		if !ok {
			pending[client] = &PendingStructRefs{Refs: refs}
			continue
		}
		merged := make([]Struct, 0, len(existing.Refs)-existing.NextIdx+len(refs))
		merged = append(merged, existing.Refs[existing.NextIdx:]...)
		merged = append(merged, refs...)
		sortStructsByClock(merged)
		existing.Refs = merged
		existing.NextIdx = 0
	}
}

// cleanupPendingStructs 在调度器让出后整理待集成区：
// 消费完的条目删除，其余丢弃已消费前缀并复位游标。
func cleanupPendingStructs(pending map[uint64]*PendingStructRefs) {
	for client, refs := range pending {
		if refs.consumed() {
			delete(pending, client)
			continue
		}
		if refs.NextIdx > 0 {
			refs.Refs = refs.Refs[refs.NextIdx:]
			refs.NextIdx = 0
		}
	}
}
