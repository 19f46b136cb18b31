package lib0

import (
	"encoding/binary"
	"math"
)

// Encoder 是只追加的字节缓冲区，提供本模块使用的变长整数编码。
// 变长无符号整数采用 7 位一组、最高位为续位标记的布局。
type Encoder struct {
	buf []byte
}

func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 64)}
}

// Len 返回当前已写入的字节数。
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Bytes 返回编码结果。返回的切片与内部缓冲区共享存储。
func (e *Encoder) Bytes() []byte {
	return e.buf
}

func (e *Encoder) WriteUint8(v uint8) {
	e.buf = append(e.buf, v)
}

// WriteVarUint 写入变长无符号整数。
func (e *Encoder) WriteVarUint(v uint64) {
	for v >= 0x80 {
		e.buf = append(e.buf, byte(v)|0x80)
		v >>= 7
	}
	e.buf = append(e.buf, byte(v))
}

// WriteVarInt 写入变长有符号整数。
// 首字节：bit7 为续位标记，bit6 为符号位，低 6 位为数值；
// 后续字节与 WriteVarUint 相同。
func (e *Encoder) WriteVarInt(v int64) {
	neg := v < 0
	uv := uint64(v)
	if neg {
		uv = uint64(-v)
	}
	first := byte(uv & 0x3F)
	if neg {
		first |= 0x40
	}
	uv >>= 6
	if uv > 0 {
		first |= 0x80
	}
	e.buf = append(e.buf, first)
	for uv > 0 {
		b := byte(uv & 0x7F)
		uv >>= 7
		if uv > 0 {
			b |= 0x80
		}
		e.buf = append(e.buf, b)
	}
}

// WriteVarString 写入长度前缀的 UTF-8 字符串。
func (e *Encoder) WriteVarString(s string) {
	e.WriteVarUint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// WriteVarUint8Array 写入长度前缀的字节数组。
func (e *Encoder) WriteVarUint8Array(b []byte) {
	e.WriteVarUint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

// WriteUint8Array 写入原始字节，不带长度前缀。
func (e *Encoder) WriteUint8Array(b []byte) {
	e.buf = append(e.buf, b...)
}

func (e *Encoder) writeFloat32(v float32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], math.Float32bits(v))
	e.buf = append(e.buf, tmp[:]...)
}

func (e *Encoder) writeFloat64(v float64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], math.Float64bits(v))
	e.buf = append(e.buf, tmp[:]...)
}

func (e *Encoder) writeInt64(v int64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	e.buf = append(e.buf, tmp[:]...)
}
