package y

import (
	"fmt"
	"sort"

	"github.com/suryatmodulus/yjs/pkg/lib0"
)

// 本文件是更新管线的主体：状态向量引导的生产者、两遍式解码器、
// 以及带显式工作栈的因果集成调度器。

func malformedErr(err error) error {
	return fmt.Errorf("%w: %w", ErrMalformedUpdate, err)
}

// EncodeStateVector 编码文档当前的状态向量。
func EncodeStateVector(doc *Doc) []byte {
	sv := doc.Store.StateVector()
	enc := lib0.NewEncoder()
	enc.WriteVarUint(uint64(len(sv)))
	clients := make([]uint64, 0, len(sv))
	for client := range sv {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i] < clients[j] })
	for _, client := range clients {
		enc.WriteVarUint(client)
		enc.WriteVarUint(sv[client])
	}
	return enc.Bytes()
}

// DecodeStateVector 解码状态向量消息。条目顺序不限。
func DecodeStateVector(buf []byte) (map[uint64]uint64, error) {
	dec := lib0.NewDecoder(buf)
	n, err := dec.ReadVarUint()
	if err != nil {
		return nil, malformedErr(err)
	}
	sv := make(map[uint64]uint64, n)
	for i := uint64(0); i < n; i++ {
		client, err := dec.ReadVarUint()
		if err != nil {
			return nil, malformedErr(err)
		}
		clock, err := dec.ReadVarUint()
		if err != nil {
			return nil, malformedErr(err)
		}
		sv[client] = clock
	}
	return sv, nil
}

// EncodeStateAsUpdate 编码相对 encodedTargetSV 缺失的全部结构与删除集。
// encodedTargetSV 为空表示对端一无所知。
func EncodeStateAsUpdate(doc *Doc, encodedTargetSV []byte) ([]byte, error) {
	return EncodeStateAsUpdateWithCodec(doc, encodedTargetSV, doc.codec)
}

// EncodeStateAsUpdateV2 同 EncodeStateAsUpdate，固定使用 v2 格式。
func EncodeStateAsUpdateV2(doc *Doc, encodedTargetSV []byte) ([]byte, error) {
	return EncodeStateAsUpdateWithCodec(doc, encodedTargetSV, V2Codec())
}

// EncodeStateAsUpdateWithCodec 使用显式指定的编解码配置。
func EncodeStateAsUpdateWithCodec(doc *Doc, encodedTargetSV []byte, codec Codec) ([]byte, error) {
	targetSV := map[uint64]uint64{}
	if len(encodedTargetSV) > 0 {
		var err error
		targetSV, err = DecodeStateVector(encodedTargetSV)
		if err != nil {
			return nil, err
		}
	}
	enc := codec.NewUpdateEncoder()
	if err := writeClientsStructs(enc, doc.Store, targetSV); err != nil {
		return nil, err
	}
	WriteDeleteSet(enc, NewDeleteSetFromStructStore(doc.Store))
	return enc.Bytes(), nil
}

// writeClientsStructs 写出所有对目标状态向量而言缺失的结构块。
// 副本按编号降序排列；接收端的调度器从高编号开始消费，
// 这个顺序能减少冲突解析的回溯。
func writeClientsStructs(enc UpdateEncoder, store *StructStore, targetSV map[uint64]uint64) error {
	toWrite := make(map[uint64]uint64)
	for client := range store.Clients {
		if state, target := store.GetState(client), targetSV[client]; state > target {
			toWrite[client] = target
		}
	}
	enc.RestEncoder().WriteVarUint(uint64(len(toWrite)))
	clients := make([]uint64, 0, len(toWrite))
	for client := range toWrite {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i] > clients[j] })
	for _, client := range clients {
		if err := writeStructs(enc, store.Clients[client], client, toWrite[client]); err != nil {
			return err
		}
	}
	return nil
}

// writeStructs 写出一个副本从 clock 起的结构块。
// 第一个结构可能跨过 clock，携带非零偏移以裁掉对端已知的前缀。
func writeStructs(enc UpdateEncoder, structs []Struct, client, clock uint64) error {
	start, err := findIndexSS(structs, clock)
	if err != nil {
		return err
	}
	enc.RestEncoder().WriteVarUint(uint64(len(structs) - start))
	enc.WriteClient(client)
	enc.RestEncoder().WriteVarUint(clock)
	first := structs[start]
	if err := first.Write(enc, clock-first.ID().Clock); err != nil {
		return err
	}
	for i := start + 1; i < len(structs); i++ {
		if err := structs[i].Write(enc, 0); err != nil {
			return err
		}
	}
	return nil
}

// readClientsStructRefs 把更新的结构段物化为按副本分组的有序列表。
// 这一遍不读存储也不集成任何东西。
func readClientsStructRefs(dec UpdateDecoder, doc *Doc) (map[uint64][]Struct, error) {
	numClients, err := dec.RestDecoder().ReadVarUint()
	if err != nil {
		return nil, err
	}
	refs := make(map[uint64][]Struct, numClients)
	for i := uint64(0); i < numClients; i++ {
		numStructs, err := dec.RestDecoder().ReadVarUint()
		if err != nil {
			return nil, err
		}
		client, err := dec.ReadClient()
		if err != nil {
			return nil, err
		}
		clock, err := dec.RestDecoder().ReadVarUint()
		if err != nil {
			return nil, err
		}
		clientRefs := make([]Struct, 0, numStructs)
		for j := uint64(0); j < numStructs; j++ {
			info, err := dec.ReadInfo()
			if err != nil {
				return nil, err
			}
			if info&contentRefMask == contentRefGC {
				length, err := dec.ReadLen()
				if err != nil {
					return nil, err
				}
				if length == 0 {
					return nil, fmt.Errorf("zero-length struct for client %d", client)
				}
				clientRefs = append(clientRefs, NewGC(ID{Client: client, Clock: clock}, length))
				clock += length
				continue
			}
			var origin, rightOrigin *ID
			if info&infoHasLeftOrigin != 0 {
				id, err := dec.ReadLeftID()
				if err != nil {
					return nil, err
				}
				origin = &id
			}
			if info&infoHasRightOrigin != 0 {
				id, err := dec.ReadRightID()
				if err != nil {
					return nil, err
				}
				rightOrigin = &id
			}
			var parent any
			var parentSub string
			if origin == nil && rightOrigin == nil {
				// 父信息显式携带：要么是根类型名，要么是父操作的 ID。
				isRootKey, err := dec.ReadParentInfo()
				if err != nil {
					return nil, err
				}
				if isRootKey {
					name, err := dec.ReadString()
					if err != nil {
						return nil, err
					}
					parent = name
				} else {
					pid, err := dec.ReadLeftID()
					if err != nil {
						return nil, err
					}
					parent = pid
				}
				if info&infoHasParentSub != 0 {
					parentSub, err = dec.ReadString()
					if err != nil {
						return nil, err
					}
				}
			}
			content, err := ReadItemContent(dec, info)
			if err != nil {
				return nil, err
			}
			item := NewItem(ID{Client: client, Clock: clock}, nil, origin, nil, rightOrigin, parent, parentSub, content)
			if item.Length() == 0 {
				return nil, fmt.Errorf("zero-length struct for client %d", client)
			}
			clientRefs = append(clientRefs, item)
			clock += item.Length()
		}
		refs[client] = clientRefs
	}
	return refs, nil
}

// integrateStructs 推进集成直到被缺失的因果前驱挡住。
// 工作栈与游标都落在存储上，下一次调用从断点继续。
func integrateStructs(txn *Transaction, store *StructStore) error {
	clientsStructRefs := store.PendingClientsStructRefs
	clientIDs := make([]uint64, 0, len(clientsStructRefs))
	for client := range clientsStructRefs {
		clientIDs = append(clientIDs, client)
	}
	sort.Slice(clientIDs, func(i, j int) bool { return clientIDs[i] < clientIDs[j] })

	for len(store.PendingStack) > 0 || len(clientIDs) > 0 {
		if len(store.PendingStack) == 0 {
			cur := clientsStructRefs[clientIDs[len(clientIDs)-1]]
			if cur.consumed() {
				clientIDs = clientIDs[:len(clientIDs)-1]
				continue
			}
			store.PendingStack = append(store.PendingStack, cur.Refs[cur.NextIdx])
			cur.NextIdx++
		}
		ref := store.PendingStack[len(store.PendingStack)-1]
		client := ref.ID().Client
		clock := ref.ID().Clock
		local := store.GetState(client)
		var offset uint64
		if local > clock {
			offset = local - clock
		}
		if clock+offset != local {
			// 同副本前驱缺失。若待集成区里有更小的 clock，换上来先做。
			peer, ok := clientsStructRefs[client]
			if ok && !peer.consumed() {
				if r := peer.Refs[peer.NextIdx]; r.ID().Clock < clock {
					store.PendingStack[len(store.PendingStack)-1] = r
					peer.Refs[peer.NextIdx] = ref
					rest := peer.Refs[peer.NextIdx:]
					sortStructsByClock(rest)
					peer.Refs = rest
					peer.NextIdx = 0
					continue
				}
			}
			// 等待后续更新送来缺口。
			return nil
		}
		missing, isMissing, err := ref.GetMissing(txn, store)
		if err != nil {
			return err
		}
		if isMissing {
			// 跨副本依赖缺失。把依赖方的下一个结构压栈，先集成它。
			mrefs, ok := clientsStructRefs[missing]
			if !ok || mrefs.consumed() {
				return nil
			}
			store.PendingStack = append(store.PendingStack, mrefs.Refs[mrefs.NextIdx])
			mrefs.NextIdx++
			continue
		}
		if offset < ref.Length() {
			if err := ref.Integrate(txn, offset); err != nil {
				return err
			}
		}
		store.PendingStack = store.PendingStack[:len(store.PendingStack)-1]
	}
	return nil
}

// encodePendingDeleteSet 把延后的删除集编码成内部重放格式 (v1)。
func encodePendingDeleteSet(ds *DeleteSet) []byte {
	ds.SortAndMerge()
	enc := NewDSEncoderV1()
	WriteDeleteSet(enc, ds)
	return enc.Bytes()
}

// tryResumePendingDeleteReaders 把之前延后的删除集各重放一次。
// 仍然套不上的部分重新延后。
func tryResumePendingDeleteReaders(txn *Transaction) error {
	store := txn.Doc.Store
	readers := store.PendingDeleteReaders
	store.PendingDeleteReaders = nil
	for _, buf := range readers {
		ds, err := ReadDeleteSet(NewDSDecoderV1(buf))
		if err != nil {
			return err
		}
		leftover, err := applyDeleteSet(txn, store, ds)
		if err != nil {
			return err
		}
		if leftover != nil {
			store.PendingDeleteReaders = append(store.PendingDeleteReaders, encodePendingDeleteSet(leftover))
		}
	}
	return nil
}

// ApplyUpdate 把一条更新消息并入文档，使用文档默认的编解码配置。
func ApplyUpdate(doc *Doc, update []byte, origin any) error {
	return ApplyUpdateWithCodec(doc, update, origin, doc.codec)
}

// ApplyUpdateV2 同 ApplyUpdate，固定使用 v2 格式。
func ApplyUpdateV2(doc *Doc, update []byte, origin any) error {
	return ApplyUpdateWithCodec(doc, update, origin, V2Codec())
}

// ApplyUpdateWithCodec 使用显式指定的编解码配置并入更新。
// 结构段与删除集先完整解析再落地，解析失败不会留下半套状态。
func ApplyUpdateWithCodec(doc *Doc, update []byte, origin any, codec Codec) error {
	return doc.TransactWith(func(txn *Transaction) error {
		dec, err := codec.NewUpdateDecoder(update)
		if err != nil {
			return malformedErr(err)
		}
		refs, err := readClientsStructRefs(dec, doc)
		if err != nil {
			return malformedErr(err)
		}
		ds, err := ReadDeleteSet(dec)
		if err != nil {
			return malformedErr(err)
		}

		mergeReadStructsIntoPendingReads(doc.Store, refs)
		if err := integrateStructs(txn, doc.Store); err != nil {
			return err
		}
		cleanupPendingStructs(doc.Store.PendingClientsStructRefs)
		if err := tryResumePendingDeleteReaders(txn); err != nil {
			return err
		}
		leftover, err := applyDeleteSet(txn, doc.Store, ds)
		if err != nil {
			return err
		}
		if leftover != nil {
			doc.Store.PendingDeleteReaders = append(doc.Store.PendingDeleteReaders, encodePendingDeleteSet(leftover))
		}
		return nil
	}, origin, false)
}
