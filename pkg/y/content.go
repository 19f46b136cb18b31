package y

import "fmt"

// 内容标签占用 info 字节的低 5 位。0 保留给墓碑。
const (
	contentRefGC      = 0
	contentRefDeleted = 1
	contentRefJSON    = 2
	contentRefBinary  = 3
	contentRefString  = 4
	contentRefEmbed   = 5
	contentRefFormat  = 6
	contentRefType    = 7
	contentRefAny     = 8
)

const contentRefMask = 0x1F

// Content 是操作携带的负载。实现必须保证 Len 与 Splice 的口径一致。
type Content interface {
	// Len 返回内容占用的时钟单位数。
	Len() uint64

	// Countable 报告内容是否计入父类型的可见长度。
	Countable() bool

	// Splice 把内容一分为二：接收者保留前 offset 个单位，返回其余部分。
	// 只有 Len 可以大于 1 的内容才会被切分。
	Splice(offset uint64) Content

	// Integrate 在所属 Item 并入存储后执行内容侧的挂接。
	Integrate(txn *Transaction, item *Item)

	// Delete 在所属 Item 被删除时执行内容侧的清理。
	Delete(txn *Transaction)

	// Write 把内容写入编码器，跳过前 offset 个单位。
	Write(enc UpdateEncoder, offset uint64) error

	// Ref 返回内容标签。
	Ref() uint8

	// Values 返回内容承载的值序列，长度与 Len 一致（不可计数内容除外）。
	Values() []any
}

// ReadItemContent 按 info 低 5 位分发到对应的内容解码器。
func ReadItemContent(dec UpdateDecoder, info uint8) (Content, error) {
	switch info & contentRefMask {
	case contentRefDeleted:
		return readContentDeleted(dec)
	case contentRefJSON:
		return readContentJSON(dec)
	case contentRefBinary:
		return readContentBinary(dec)
	case contentRefString:
		return readContentString(dec)
	case contentRefEmbed:
		return readContentEmbed(dec)
	case contentRefFormat:
		return readContentFormat(dec)
	case contentRefType:
		return readContentType(dec)
	case contentRefAny:
		return readContentAny(dec)
	default:
		return nil, fmt.Errorf("unknown content tag %d", info&contentRefMask)
	}
}
