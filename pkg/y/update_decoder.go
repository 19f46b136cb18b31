package y

import (
	"encoding/json"

	"github.com/suryatmodulus/yjs/pkg/lib0"
)

// DSDecoder 是删除集解码面，与 DSEncoder 对应。
type DSDecoder interface {
	RestDecoder() *lib0.Decoder
	ResetDsCurVal()
	ReadDsClock() (uint64, error)
	ReadDsLen() (uint64, error)
}

// UpdateDecoder 是结构解码面，与 UpdateEncoder 对应。
type UpdateDecoder interface {
	DSDecoder
	ReadLeftID() (ID, error)
	ReadRightID() (ID, error)
	ReadClient() (uint64, error)
	ReadInfo() (uint8, error)
	ReadString() (string, error)
	ReadParentInfo() (bool, error)
	ReadTypeRef() (uint8, error)
	ReadLen() (uint64, error)
	ReadAny() (any, error)
	ReadBuf() ([]byte, error)
	ReadJSON() (any, error)
	ReadKey() (string, error)
}

// UpdateDecoderV1 从单一字节流顺序读取所有字段。
type UpdateDecoderV1 struct {
	rest     *lib0.Decoder
	dsCurVal uint64
}

func NewUpdateDecoderV1(buf []byte) *UpdateDecoderV1 {
	return &UpdateDecoderV1{rest: lib0.NewDecoder(buf)}
}

// NewDSDecoderV1 返回只用于删除集消息的 v1 解码器。
func NewDSDecoderV1(buf []byte) *UpdateDecoderV1 {
	return NewUpdateDecoderV1(buf)
}

func (d *UpdateDecoderV1) RestDecoder() *lib0.Decoder { return d.rest }

func (d *UpdateDecoderV1) ResetDsCurVal() { d.dsCurVal = 0 }

func (d *UpdateDecoderV1) ReadDsClock() (uint64, error) {
	diff, err := d.rest.ReadVarUint()
	if err != nil {
		return 0, err
	}
	d.dsCurVal += diff
	return d.dsCurVal, nil
}

func (d *UpdateDecoderV1) ReadDsLen() (uint64, error) {
	diff, err := d.rest.ReadVarUint()
	if err != nil {
		return 0, err
	}
	l := diff + 1
	d.dsCurVal += l
	return l, nil
}

func (d *UpdateDecoderV1) ReadLeftID() (ID, error) { return d.readID() }

func (d *UpdateDecoderV1) ReadRightID() (ID, error) { return d.readID() }

func (d *UpdateDecoderV1) readID() (ID, error) {
	client, err := d.rest.ReadVarUint()
	if err != nil {
		return ID{}, err
	}
	clock, err := d.rest.ReadVarUint()
	if err != nil {
		return ID{}, err
	}
	return ID{Client: client, Clock: clock}, nil
}

func (d *UpdateDecoderV1) ReadClient() (uint64, error) { return d.rest.ReadVarUint() }

func (d *UpdateDecoderV1) ReadInfo() (uint8, error) { return d.rest.ReadUint8() }

func (d *UpdateDecoderV1) ReadString() (string, error) { return d.rest.ReadVarString() }

func (d *UpdateDecoderV1) ReadParentInfo() (bool, error) {
	v, err := d.rest.ReadVarUint()
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

func (d *UpdateDecoderV1) ReadTypeRef() (uint8, error) {
	v, err := d.rest.ReadVarUint()
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

func (d *UpdateDecoderV1) ReadLen() (uint64, error) { return d.rest.ReadVarUint() }

func (d *UpdateDecoderV1) ReadAny() (any, error) { return d.rest.ReadAny() }

func (d *UpdateDecoderV1) ReadBuf() ([]byte, error) { return d.rest.ReadVarUint8Array() }

func (d *UpdateDecoderV1) ReadJSON() (any, error) {
	s, err := d.rest.ReadVarString()
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (d *UpdateDecoderV1) ReadKey() (string, error) { return d.rest.ReadVarString() }
