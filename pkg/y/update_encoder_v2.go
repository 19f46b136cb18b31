package y

import (
	"github.com/suryatmodulus/yjs/pkg/lib0"
)

// v2 帧以一个标记字节开头，随后是八个长度前缀的列字节流，
// 最后是主流（计数、clock、内容负载、删除集）。
// v1 解码器遇到该标记会把整个消息当作损坏的更新拒绝。
const updateFormatV2Marker = 0xC1

// UpdateEncoderV2 把同质字段压入独立的列流，其余内容留在主流。
type UpdateEncoderV2 struct {
	rest     *lib0.Encoder
	dsCurVal uint64

	clientEnc     *lib0.UintOptRleEncoder
	leftClockEnc  *lib0.IntDiffOptRleEncoder
	rightClockEnc *lib0.IntDiffOptRleEncoder
	infoEnc       *lib0.RleEncoder
	stringEnc     *lib0.StringEncoder
	parentInfoEnc *lib0.RleEncoder
	typeRefEnc    *lib0.UintOptRleEncoder
	lenEnc        *lib0.UintOptRleEncoder
}

func NewUpdateEncoderV2() *UpdateEncoderV2 {
	return &UpdateEncoderV2{
		rest:          lib0.NewEncoder(),
		clientEnc:     lib0.NewUintOptRleEncoder(),
		leftClockEnc:  lib0.NewIntDiffOptRleEncoder(),
		rightClockEnc: lib0.NewIntDiffOptRleEncoder(),
		infoEnc:       lib0.NewRleEncoder(),
		stringEnc:     lib0.NewStringEncoder(),
		parentInfoEnc: lib0.NewRleEncoder(),
		typeRefEnc:    lib0.NewUintOptRleEncoder(),
		lenEnc:        lib0.NewUintOptRleEncoder(),
	}
}

func (e *UpdateEncoderV2) RestEncoder() *lib0.Encoder { return e.rest }

func (e *UpdateEncoderV2) Bytes() []byte {
	out := lib0.NewEncoder()
	out.WriteUint8(updateFormatV2Marker)
	out.WriteVarUint8Array(e.clientEnc.Bytes())
	out.WriteVarUint8Array(e.leftClockEnc.Bytes())
	out.WriteVarUint8Array(e.rightClockEnc.Bytes())
	out.WriteVarUint8Array(e.infoEnc.Bytes())
	out.WriteVarUint8Array(e.stringEnc.Bytes())
	out.WriteVarUint8Array(e.parentInfoEnc.Bytes())
	out.WriteVarUint8Array(e.typeRefEnc.Bytes())
	out.WriteVarUint8Array(e.lenEnc.Bytes())
	out.WriteUint8Array(e.rest.Bytes())
	return out.Bytes()
}

func (e *UpdateEncoderV2) ResetDsCurVal() { e.dsCurVal = 0 }

func (e *UpdateEncoderV2) WriteDsClock(clock uint64) {
	e.rest.WriteVarUint(clock - e.dsCurVal)
	e.dsCurVal = clock
}

func (e *UpdateEncoderV2) WriteDsLen(l uint64) {
	e.rest.WriteVarUint(l - 1)
	e.dsCurVal += l
}

func (e *UpdateEncoderV2) WriteLeftID(id ID) {
	e.clientEnc.Write(id.Client)
	e.leftClockEnc.Write(id.Clock)
}

func (e *UpdateEncoderV2) WriteRightID(id ID) {
	e.clientEnc.Write(id.Client)
	e.rightClockEnc.Write(id.Clock)
}

func (e *UpdateEncoderV2) WriteClient(client uint64) { e.clientEnc.Write(client) }

func (e *UpdateEncoderV2) WriteInfo(info uint8) { e.infoEnc.Write(info) }

func (e *UpdateEncoderV2) WriteString(s string) { e.stringEnc.Write(s) }

func (e *UpdateEncoderV2) WriteParentInfo(isRootKey bool) {
	if isRootKey {
		e.parentInfoEnc.Write(1)
	} else {
		e.parentInfoEnc.Write(0)
	}
}

func (e *UpdateEncoderV2) WriteTypeRef(ref uint8) { e.typeRefEnc.Write(uint64(ref)) }

func (e *UpdateEncoderV2) WriteLen(l uint64) { e.lenEnc.Write(l) }

func (e *UpdateEncoderV2) WriteAny(v any) error { return e.rest.WriteAny(v) }

func (e *UpdateEncoderV2) WriteBuf(b []byte) { e.rest.WriteVarUint8Array(b) }

func (e *UpdateEncoderV2) WriteJSON(v any) error { return e.rest.WriteAny(v) }

func (e *UpdateEncoderV2) WriteKey(s string) { e.stringEnc.Write(s) }

// DSEncoderV2 是 v2 删除集消息编码器：标记字节加 v1 相同的主流布局。
type DSEncoderV2 struct {
	rest     *lib0.Encoder
	dsCurVal uint64
}

func NewDSEncoderV2() *DSEncoderV2 {
	e := &DSEncoderV2{rest: lib0.NewEncoder()}
	e.rest.WriteUint8(updateFormatV2Marker)
	return e
}

func (e *DSEncoderV2) RestEncoder() *lib0.Encoder { return e.rest }

func (e *DSEncoderV2) Bytes() []byte { return e.rest.Bytes() }

func (e *DSEncoderV2) ResetDsCurVal() { e.dsCurVal = 0 }

func (e *DSEncoderV2) WriteDsClock(clock uint64) {
	e.rest.WriteVarUint(clock - e.dsCurVal)
	e.dsCurVal = clock
}

func (e *DSEncoderV2) WriteDsLen(l uint64) {
	e.rest.WriteVarUint(l - 1)
	e.dsCurVal += l
}
