package y

// Struct 是时钟区间上的结构单元：要么是携带内容的操作 (Item)，
// 要么是内容已丢弃、只保留时钟区间的墓碑 (GC)。
type Struct interface {
	// ID 返回结构起点标识。
	ID() ID

	// Length 返回结构占用的时钟区间长度，至少为 1。
	Length() uint64

	// Deleted 报告结构内容是否已删除。
	Deleted() bool

	// Write 把结构写入编码器，跳过前 offset 个时钟单位。
	Write(enc UpdateEncoder, offset uint64) error

	// Integrate 把结构并入本地存储，跳过前 offset 个已知的时钟单位。
	Integrate(txn *Transaction, offset uint64) error

	// GetMissing 返回一个尚未集成的跨副本依赖。
	// 依赖全部就绪时返回 ok=false，并顺带把 ID 引用解析为指针。
	GetMissing(txn *Transaction, store *StructStore) (missing uint64, ok bool, err error)
}
