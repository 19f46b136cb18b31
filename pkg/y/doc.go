package y

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// maxSafeClientID 把副本编号限制在 53 位内，便于与基于双精度
// 浮点数的实现互通。
const maxSafeClientID = uint64(1)<<53 - 1

// Doc 是一份共享文档：结构存储、根类型表与编解码配置。
// 单个 Doc 不支持并发事务，由调用方保证串行驱动。
type Doc struct {
	// GUID 是文档的全局标识。
	GUID string
	// ClientID 是本副本的编号。
	ClientID uint64
	// Store 保存全部已集成结构与待集成区。
	Store *StructStore
	// Share 按名字保存根类型。
	Share map[string]SharedType

	codec       Codec
	transaction *Transaction
}

// DocOption 用于修改 Doc 的构造参数。
type DocOption func(*Doc)

// WithGUID 指定文档标识。
func WithGUID(guid string) DocOption {
	return func(d *Doc) { d.GUID = guid }
}

// WithClientID 指定副本编号。
func WithClientID(clientID uint64) DocOption {
	return func(d *Doc) { d.ClientID = clientID & maxSafeClientID }
}

// WithCodec 指定文档默认使用的编解码版本。
func WithCodec(codec Codec) DocOption {
	return func(d *Doc) { d.codec = codec }
}

// NewDoc 创建空文档。副本编号默认取随机值。
func NewDoc(opts ...DocOption) *Doc {
	doc := &Doc{
		GUID:     uuid.NewString(),
		ClientID: generateClientID(),
		Store:    NewStructStore(),
		Share:    make(map[string]SharedType),
		codec:    DefaultCodec(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(doc)
		}
	}
	return doc
}

func generateClientID() uint64 {
	u := uuid.New()
	return binary.BigEndian.Uint64(u[:8]) & maxSafeClientID
}

// rootBase 返回名字对应的根类型状态，不存在时先注册一个未定型的根。
func (d *Doc) rootBase(name string) *AbstractType {
	if st, ok := d.Share[name]; ok {
		return st.Base()
	}
	base := newAbstractType(typeRefUnspecified)
	base.Doc = d
	d.Share[name] = base
	return base
}

// GetText 返回名为 name 的根文本类型，必要时创建。
func (d *Doc) GetText(name string) (*Text, error) {
	st, ok := d.Share[name]
	if !ok {
		t := NewText()
		t.base.Doc = d
		d.Share[name] = t
		return t, nil
	}
	if t, ok := st.(*Text); ok {
		return t, nil
	}
	if base, ok := st.(*AbstractType); ok && base.ref == typeRefUnspecified {
		base.ref = TypeRefText
		t := &Text{base: base}
		d.Share[name] = t
		return t, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrTypeMismatch, name)
}

// GetArray 返回名为 name 的根数组类型，必要时创建。
func (d *Doc) GetArray(name string) (*Array, error) {
	st, ok := d.Share[name]
	if !ok {
		a := NewArray()
		a.base.Doc = d
		d.Share[name] = a
		return a, nil
	}
	if a, ok := st.(*Array); ok {
		return a, nil
	}
	if base, ok := st.(*AbstractType); ok && base.ref == typeRefUnspecified {
		base.ref = TypeRefArray
		a := &Array{base: base}
		d.Share[name] = a
		return a, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrTypeMismatch, name)
}

// GetMap 返回名为 name 的根映射类型，必要时创建。
func (d *Doc) GetMap(name string) (*Map, error) {
	st, ok := d.Share[name]
	if !ok {
		m := NewMap()
		m.base.Doc = d
		d.Share[name] = m
		return m, nil
	}
	if m, ok := st.(*Map); ok {
		return m, nil
	}
	if base, ok := st.(*AbstractType); ok && base.ref == typeRefUnspecified {
		base.ref = TypeRefMap
		m := &Map{base: base}
		d.Share[name] = m
		return m, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrTypeMismatch, name)
}
