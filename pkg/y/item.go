package y

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// info 字节的高 3 位标记可选字段，低 5 位是内容标签。
const (
	infoHasLeftOrigin  = 0x80
	infoHasRightOrigin = 0x40
	infoHasParentSub   = 0x20
)

// Item 是携带内容的操作结构。
// Origin/RightOrigin 以 ID 引用创建时的左右邻居；left/right 是
// 集成之后在父类型双向链表里的实际邻居。
// parent 可能是根类型名 (string)、未解析的 ID，或解析完成的
// *AbstractType。解码后为 nil 表示父信息隐含在邻居中，由 GetMissing 恢复；
// GetMissing 之后仍为 nil 表示父区间已坍缩，集成时退化为墓碑。
type Item struct {
	id          ID
	Origin      *ID
	RightOrigin *ID
	left        *Item
	right       *Item
	parent      any
	ParentSub   string
	Content     Content
	deleted     bool
}

// NewItem 构造一个待集成的操作。
func NewItem(id ID, left *Item, origin *ID, right *Item, rightOrigin *ID, parent any, parentSub string, content Content) *Item {
	return &Item{
		id:          id,
		left:        left,
		Origin:      origin,
		right:       right,
		RightOrigin: rightOrigin,
		parent:      parent,
		ParentSub:   parentSub,
		Content:     content,
	}
}

func (it *Item) ID() ID { return it.id }

func (it *Item) Length() uint64 { return it.Content.Len() }

func (it *Item) Deleted() bool { return it.deleted }

// Countable 报告内容是否计入父类型长度。
func (it *Item) Countable() bool { return it.Content.Countable() }

// LastID 返回结构覆盖的最后一个时钟单位。
func (it *Item) LastID() ID {
	return ID{Client: it.id.Client, Clock: it.id.Clock + it.Length() - 1}
}

// Next 返回链表中的右邻居。
func (it *Item) Next() *Item { return it.right }

// Prev 返回链表中的左邻居。
func (it *Item) Prev() *Item { return it.left }

// Parent 返回解析后的父类型，尚未解析时返回 nil。
func (it *Item) Parent() *AbstractType {
	if p, ok := it.parent.(*AbstractType); ok {
		return p
	}
	return nil
}

// GetMissing 检查跨副本依赖；依赖全部就绪后把 ID 引用修复为指针，
// 并在缺失父信息时从邻居恢复。
func (it *Item) GetMissing(txn *Transaction, store *StructStore) (uint64, bool, error) {
	if it.Origin != nil && it.Origin.Client != it.id.Client && it.Origin.Clock >= store.GetState(it.Origin.Client) {
		return it.Origin.Client, true, nil
	}
	if it.RightOrigin != nil && it.RightOrigin.Client != it.id.Client && it.RightOrigin.Clock >= store.GetState(it.RightOrigin.Client) {
		return it.RightOrigin.Client, true, nil
	}
	if pid, ok := it.parent.(ID); ok && pid.Client != it.id.Client && pid.Clock >= store.GetState(pid.Client) {
		return pid.Client, true, nil
	}

	// 依赖齐备，解析引用。
	var leftCollapsed, rightCollapsed bool
	if it.Origin != nil {
		l, err := store.GetItemCleanEnd(txn, *it.Origin)
		if err != nil {
			return 0, false, err
		}
		last := l.ID()
		last.Clock += l.Length() - 1
		it.Origin = &last
		if li, ok := l.(*Item); ok {
			it.left = li
		} else {
			it.left = nil
			leftCollapsed = true
		}
	}
	if it.RightOrigin != nil {
		r, err := store.GetItemCleanStart(txn, *it.RightOrigin)
		if err != nil {
			return 0, false, err
		}
		rid := r.ID()
		it.RightOrigin = &rid
		if ri, ok := r.(*Item); ok {
			it.right = ri
		} else {
			it.right = nil
			rightCollapsed = true
		}
	}

	switch {
	case leftCollapsed || rightCollapsed:
		// 邻居已坍缩成墓碑，本操作的内容不再可达。
		it.parent = nil
	case it.parent == nil:
		if it.left != nil {
			it.parent = it.left.parent
			it.ParentSub = it.left.ParentSub
		} else if it.right != nil {
			it.parent = it.right.parent
			it.ParentSub = it.right.ParentSub
		}
	default:
		if pid, ok := it.parent.(ID); ok {
			p, err := store.Find(pid)
			if err != nil {
				return 0, false, err
			}
			if pi, ok := p.(*Item); ok {
				if ct, ok := pi.Content.(*ContentType); ok {
					it.parent = ct.Type().Base()
				} else {
					it.parent = nil
				}
			} else {
				it.parent = nil
			}
		} else if name, ok := it.parent.(string); ok {
			it.parent = txn.Doc.rootBase(name)
		}
	}
	return 0, false, nil
}

// Integrate 把操作并入父类型。offset 是已被本地状态覆盖的前缀长度。
func (it *Item) Integrate(txn *Transaction, offset uint64) error {
	store := txn.Doc.Store
	if offset > 0 {
		it.id.Clock += offset
		l, err := store.GetItemCleanEnd(txn, ID{Client: it.id.Client, Clock: it.id.Clock - 1})
		if err != nil {
			return err
		}
		last := l.ID()
		last.Clock += l.Length() - 1
		it.Origin = &last
		if li, ok := l.(*Item); ok {
			it.left = li
		} else {
			it.left = nil
		}
		it.Content = it.Content.Splice(offset)
	}

	parent, ok := it.parent.(*AbstractType)
	if !ok || parent == nil {
		// 父区间不可达：保留时钟区间即可。
		g := NewGC(it.id, it.Length())
		return g.Integrate(txn, 0)
	}

	if (it.left == nil && (it.right == nil || it.right.left != nil)) ||
		(it.left != nil && it.left.right != it.right) {
		// 存在并发插入，按 origin 规则确定最终的左邻居。
		left := it.left
		var o *Item
		if left != nil {
			o = left.right
		} else if it.ParentSub != "" {
			o = parent.Map[it.ParentSub]
			for o != nil && o.left != nil {
				o = o.left
			}
		} else {
			o = parent.Start
		}
		conflictingItems := mapset.NewThreadUnsafeSet[*Item]()
		itemsBeforeOrigin := mapset.NewThreadUnsafeSet[*Item]()
		for o != nil && o != it.right {
			itemsBeforeOrigin.Add(o)
			conflictingItems.Add(o)
			if EqualIDPtr(it.Origin, o.Origin) {
				if o.id.Client < it.id.Client {
					left = o
					conflictingItems.Clear()
				} else if EqualIDPtr(it.RightOrigin, o.RightOrigin) {
					break
				}
			} else if o.Origin != nil {
				oo, err := store.Find(*o.Origin)
				if err != nil {
					return err
				}
				ooItem, isItem := oo.(*Item)
				if isItem && itemsBeforeOrigin.Contains(ooItem) {
					if !conflictingItems.Contains(ooItem) {
						left = o
						conflictingItems.Clear()
					}
				} else {
					break
				}
			} else {
				break
			}
			o = o.right
		}
		it.left = left
	}

	// 接入双向链表。
	if it.left != nil {
		right := it.left.right
		it.right = right
		it.left.right = it
	} else {
		var r *Item
		if it.ParentSub != "" {
			r = parent.Map[it.ParentSub]
			for r != nil && r.left != nil {
				r = r.left
			}
		} else {
			r = parent.Start
			parent.Start = it
		}
		it.right = r
	}
	if it.right != nil {
		it.right.left = it
	} else if it.ParentSub != "" {
		parent.Map[it.ParentSub] = it
		if it.left != nil {
			// 本操作成为该键的当前值，旧值转为删除态。
			it.left.Delete(txn)
		}
	}

	if it.ParentSub == "" && it.Countable() && !it.deleted {
		parent.Length += it.Length()
	}
	if err := store.AddStruct(it); err != nil {
		return err
	}
	it.Content.Integrate(txn, it)
	if (parent.Item != nil && parent.Item.deleted) || (it.ParentSub != "" && it.right != nil) {
		it.Delete(txn)
	}
	return nil
}

// Delete 标记操作为删除态并记入事务删除集。
func (it *Item) Delete(txn *Transaction) {
	if it.deleted {
		return
	}
	if p, ok := it.parent.(*AbstractType); ok && it.ParentSub == "" && it.Countable() {
		p.Length -= it.Length()
	}
	it.deleted = true
	txn.DeleteSet.Add(it.id.Client, it.id.Clock, it.Length())
	it.Content.Delete(txn)
}

// Write 按 info 字节布局写出操作，跳过前 offset 个时钟单位。
func (it *Item) Write(enc UpdateEncoder, offset uint64) error {
	origin := it.Origin
	if offset > 0 {
		origin = &ID{Client: it.id.Client, Clock: it.id.Clock + offset - 1}
	}
	rightOrigin := it.RightOrigin
	parentCarried := origin == nil && rightOrigin == nil
	info := it.Content.Ref()
	if origin != nil {
		info |= infoHasLeftOrigin
	}
	if rightOrigin != nil {
		info |= infoHasRightOrigin
	}
	if parentCarried && it.ParentSub != "" {
		info |= infoHasParentSub
	}
	enc.WriteInfo(info)
	if origin != nil {
		enc.WriteLeftID(*origin)
	}
	if rightOrigin != nil {
		enc.WriteRightID(*rightOrigin)
	}
	if parentCarried {
		switch p := it.parent.(type) {
		case string:
			enc.WriteParentInfo(true)
			enc.WriteString(p)
		case ID:
			enc.WriteParentInfo(false)
			enc.WriteLeftID(p)
		case *AbstractType:
			if p.Item != nil {
				enc.WriteParentInfo(false)
				enc.WriteLeftID(p.Item.id)
			} else {
				key, err := findRootTypeKey(p)
				if err != nil {
					return err
				}
				enc.WriteParentInfo(true)
				enc.WriteString(key)
			}
		default:
			return ErrUnexpectedCase
		}
		if it.ParentSub != "" {
			enc.WriteString(it.ParentSub)
		}
	}
	return it.Content.Write(enc, offset)
}

// splitItem 在 diff 处把 left 切成两半，返回右半。
// 调用方负责把右半插入存储的结构列表。
func splitItem(left *Item, diff uint64) *Item {
	client, clock := left.id.Client, left.id.Clock
	rightContent := left.Content.Splice(diff)
	right := &Item{
		id:          ID{Client: client, Clock: clock + diff},
		left:        left,
		Origin:      &ID{Client: client, Clock: clock + diff - 1},
		right:       left.right,
		RightOrigin: left.RightOrigin,
		parent:      left.parent,
		ParentSub:   left.ParentSub,
		Content:     rightContent,
		deleted:     left.deleted,
	}
	left.right = right
	if right.right != nil {
		right.right.left = right
	} else if right.ParentSub != "" {
		if p, ok := right.parent.(*AbstractType); ok {
			p.Map[right.ParentSub] = right
		}
	}
	return right
}
