package y

import (
	"encoding/json"

	"github.com/suryatmodulus/yjs/pkg/lib0"
)

// DSEncoder 是删除集编码面。主字节流由 RestEncoder 暴露，
// 删除区间的 clock 采用相对于每副本游标的差分编码。
type DSEncoder interface {
	RestEncoder() *lib0.Encoder
	ResetDsCurVal()
	WriteDsClock(clock uint64)
	WriteDsLen(l uint64)
	// Bytes 结束编码并返回完整的消息字节。
	Bytes() []byte
}

// UpdateEncoder 是结构编码面，v1 与 v2 两个实现可以互换使用。
type UpdateEncoder interface {
	DSEncoder
	WriteLeftID(id ID)
	WriteRightID(id ID)
	WriteClient(client uint64)
	WriteInfo(info uint8)
	WriteString(s string)
	WriteParentInfo(isRootKey bool)
	WriteTypeRef(ref uint8)
	WriteLen(l uint64)
	WriteAny(v any) error
	WriteBuf(b []byte)
	WriteJSON(v any) error
	WriteKey(s string)
}

// UpdateEncoderV1 把所有字段顺序写入单一字节流。
type UpdateEncoderV1 struct {
	rest     *lib0.Encoder
	dsCurVal uint64
}

func NewUpdateEncoderV1() *UpdateEncoderV1 {
	return &UpdateEncoderV1{rest: lib0.NewEncoder()}
}

// NewDSEncoderV1 返回只用于删除集消息的 v1 编码器。
func NewDSEncoderV1() *UpdateEncoderV1 {
	return NewUpdateEncoderV1()
}

func (e *UpdateEncoderV1) RestEncoder() *lib0.Encoder { return e.rest }

func (e *UpdateEncoderV1) Bytes() []byte { return e.rest.Bytes() }

func (e *UpdateEncoderV1) ResetDsCurVal() { e.dsCurVal = 0 }

func (e *UpdateEncoderV1) WriteDsClock(clock uint64) {
	e.rest.WriteVarUint(clock - e.dsCurVal)
	e.dsCurVal = clock
}

func (e *UpdateEncoderV1) WriteDsLen(l uint64) {
	// 长度为 0 的删除区间不会被产生。
	e.rest.WriteVarUint(l - 1)
	e.dsCurVal += l
}

func (e *UpdateEncoderV1) WriteLeftID(id ID) {
	e.rest.WriteVarUint(id.Client)
	e.rest.WriteVarUint(id.Clock)
}

func (e *UpdateEncoderV1) WriteRightID(id ID) {
	e.rest.WriteVarUint(id.Client)
	e.rest.WriteVarUint(id.Clock)
}

func (e *UpdateEncoderV1) WriteClient(client uint64) { e.rest.WriteVarUint(client) }

func (e *UpdateEncoderV1) WriteInfo(info uint8) { e.rest.WriteUint8(info) }

func (e *UpdateEncoderV1) WriteString(s string) { e.rest.WriteVarString(s) }

func (e *UpdateEncoderV1) WriteParentInfo(isRootKey bool) {
	if isRootKey {
		e.rest.WriteVarUint(1)
	} else {
		e.rest.WriteVarUint(0)
	}
}

func (e *UpdateEncoderV1) WriteTypeRef(ref uint8) { e.rest.WriteVarUint(uint64(ref)) }

func (e *UpdateEncoderV1) WriteLen(l uint64) { e.rest.WriteVarUint(l) }

func (e *UpdateEncoderV1) WriteAny(v any) error { return e.rest.WriteAny(v) }

func (e *UpdateEncoderV1) WriteBuf(b []byte) { e.rest.WriteVarUint8Array(b) }

func (e *UpdateEncoderV1) WriteJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e.rest.WriteVarString(string(b))
	return nil
}

func (e *UpdateEncoderV1) WriteKey(s string) { e.rest.WriteVarString(s) }
