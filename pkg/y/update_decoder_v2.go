package y

import (
	"fmt"

	"github.com/suryatmodulus/yjs/pkg/lib0"
)

// UpdateDecoderV2 与 UpdateEncoderV2 对应：先取出八个列流，
// 剩余字节作为主流继续读取。
type UpdateDecoderV2 struct {
	rest     *lib0.Decoder
	dsCurVal uint64

	clientDec     *lib0.UintOptRleDecoder
	leftClockDec  *lib0.IntDiffOptRleDecoder
	rightClockDec *lib0.IntDiffOptRleDecoder
	infoDec       *lib0.RleDecoder
	stringDec     *lib0.StringDecoder
	parentInfoDec *lib0.RleDecoder
	typeRefDec    *lib0.UintOptRleDecoder
	lenDec        *lib0.UintOptRleDecoder
}

func NewUpdateDecoderV2(buf []byte) (*UpdateDecoderV2, error) {
	dec := lib0.NewDecoder(buf)
	marker, err := dec.ReadUint8()
	if err != nil {
		return nil, err
	}
	if marker != updateFormatV2Marker {
		return nil, fmt.Errorf("%w: expected v2 marker, got 0x%02X", ErrUnknownFormatVersion, marker)
	}
	columns := make([][]byte, 8)
	for i := range columns {
		col, err := dec.ReadVarUint8Array()
		if err != nil {
			return nil, err
		}
		columns[i] = col
	}
	return &UpdateDecoderV2{
		rest:          lib0.NewDecoder(dec.Rest()),
		clientDec:     lib0.NewUintOptRleDecoder(columns[0]),
		leftClockDec:  lib0.NewIntDiffOptRleDecoder(columns[1]),
		rightClockDec: lib0.NewIntDiffOptRleDecoder(columns[2]),
		infoDec:       lib0.NewRleDecoder(columns[3]),
		stringDec:     lib0.NewStringDecoder(columns[4]),
		parentInfoDec: lib0.NewRleDecoder(columns[5]),
		typeRefDec:    lib0.NewUintOptRleDecoder(columns[6]),
		lenDec:        lib0.NewUintOptRleDecoder(columns[7]),
	}, nil
}

func (d *UpdateDecoderV2) RestDecoder() *lib0.Decoder { return d.rest }

func (d *UpdateDecoderV2) ResetDsCurVal() { d.dsCurVal = 0 }

func (d *UpdateDecoderV2) ReadDsClock() (uint64, error) {
	diff, err := d.rest.ReadVarUint()
	if err != nil {
		return 0, err
	}
	d.dsCurVal += diff
	return d.dsCurVal, nil
}

func (d *UpdateDecoderV2) ReadDsLen() (uint64, error) {
	diff, err := d.rest.ReadVarUint()
	if err != nil {
		return 0, err
	}
	l := diff + 1
	d.dsCurVal += l
	return l, nil
}

func (d *UpdateDecoderV2) ReadLeftID() (ID, error) {
	client, err := d.clientDec.Read()
	if err != nil {
		return ID{}, err
	}
	clock, err := d.leftClockDec.Read()
	if err != nil {
		return ID{}, err
	}
	return ID{Client: client, Clock: clock}, nil
}

func (d *UpdateDecoderV2) ReadRightID() (ID, error) {
	client, err := d.clientDec.Read()
	if err != nil {
		return ID{}, err
	}
	clock, err := d.rightClockDec.Read()
	if err != nil {
		return ID{}, err
	}
	return ID{Client: client, Clock: clock}, nil
}

func (d *UpdateDecoderV2) ReadClient() (uint64, error) { return d.clientDec.Read() }

func (d *UpdateDecoderV2) ReadInfo() (uint8, error) { return d.infoDec.Read() }

func (d *UpdateDecoderV2) ReadString() (string, error) { return d.stringDec.Read() }

func (d *UpdateDecoderV2) ReadParentInfo() (bool, error) {
	v, err := d.parentInfoDec.Read()
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

func (d *UpdateDecoderV2) ReadTypeRef() (uint8, error) {
	v, err := d.typeRefDec.Read()
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

func (d *UpdateDecoderV2) ReadLen() (uint64, error) { return d.lenDec.Read() }

func (d *UpdateDecoderV2) ReadAny() (any, error) { return d.rest.ReadAny() }

func (d *UpdateDecoderV2) ReadBuf() ([]byte, error) { return d.rest.ReadVarUint8Array() }

func (d *UpdateDecoderV2) ReadJSON() (any, error) { return d.rest.ReadAny() }

func (d *UpdateDecoderV2) ReadKey() (string, error) { return d.stringDec.Read() }

// DSDecoderV2 与 DSEncoderV2 对应。
type DSDecoderV2 struct {
	rest     *lib0.Decoder
	dsCurVal uint64
}

func NewDSDecoderV2(buf []byte) (*DSDecoderV2, error) {
	dec := lib0.NewDecoder(buf)
	marker, err := dec.ReadUint8()
	if err != nil {
		return nil, err
	}
	if marker != updateFormatV2Marker {
		return nil, fmt.Errorf("%w: expected v2 marker, got 0x%02X", ErrUnknownFormatVersion, marker)
	}
	return &DSDecoderV2{rest: lib0.NewDecoder(dec.Rest())}, nil
}

func (d *DSDecoderV2) RestDecoder() *lib0.Decoder { return d.rest }

func (d *DSDecoderV2) ResetDsCurVal() { d.dsCurVal = 0 }

func (d *DSDecoderV2) ReadDsClock() (uint64, error) {
	diff, err := d.rest.ReadVarUint()
	if err != nil {
		return 0, err
	}
	d.dsCurVal += diff
	return d.dsCurVal, nil
}

func (d *DSDecoderV2) ReadDsLen() (uint64, error) {
	diff, err := d.rest.ReadVarUint()
	if err != nil {
		return 0, err
	}
	l := diff + 1
	d.dsCurVal += l
	return l, nil
}
