package y

// Transaction 聚合一次修改会话的簿记：事务内产生的删除集、
// 事务前后的状态向量快照，以及发起方信息。
// 所有对存储与待集成区的修改都发生在事务内。
type Transaction struct {
	// Doc 是事务所属的文档。
	Doc *Doc
	// DeleteSet 收集事务内产生的删除。
	DeleteSet *DeleteSet
	// BeforeState 是事务开始时的状态向量。
	BeforeState map[uint64]uint64
	// AfterState 是事务结束时的状态向量。
	AfterState map[uint64]uint64
	// Origin 标记事务来源，由调用方自定义。
	Origin any
	// Local 区分本地编辑与远端更新。
	Local bool
}

// Transact 在本地事务中运行 body。事务可以嵌套，嵌套调用
// 直接复用外层事务。
func (d *Doc) Transact(body func(*Transaction) error) error {
	return d.TransactWith(body, nil, true)
}

// TransactWith 在指定来源的事务中运行 body。
func (d *Doc) TransactWith(body func(*Transaction) error, origin any, local bool) error {
	if d.transaction != nil {
		return body(d.transaction)
	}
	txn := &Transaction{
		Doc:         d,
		DeleteSet:   NewDeleteSet(),
		BeforeState: d.Store.StateVector(),
		Origin:      origin,
		Local:       local,
	}
	d.transaction = txn
	defer func() {
		d.transaction = nil
		txn.AfterState = d.Store.StateVector()
		txn.DeleteSet.SortAndMerge()
	}()
	return body(txn)
}
