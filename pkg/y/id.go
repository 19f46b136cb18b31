package y

// ID 唯一标识某个副本产生的一段操作区间的起点。
// Client 是副本编号，Clock 是该副本内单调递增的逻辑时钟。
type ID struct {
	Client uint64
	Clock  uint64
}

// EqualIDPtr 比较两个可能为 nil 的 ID。
func EqualIDPtr(a, b *ID) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
