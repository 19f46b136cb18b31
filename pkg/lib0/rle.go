package lib0

// 本文件实现 v2 更新格式使用的列式编码器。
// 每个编码器把一列同质数据压成独立的字节流，与主流分开存放。
// 编码器与对应的解码器必须能逐位往返，各自独立成对使用。

// writeVarIntSigned 写入带显式符号位的变长整数，支持“负零”。
// UintOptRle 用负号承载“后面跟着 count”这一信息，因此符号必须与
// 数值本身分离。
func (e *Encoder) writeVarIntSigned(v uint64, neg bool) {
	first := byte(v & 0x3F)
	if neg {
		first |= 0x40
	}
	v >>= 6
	if v > 0 {
		first |= 0x80
	}
	e.buf = append(e.buf, first)
	for v > 0 {
		b := byte(v & 0x7F)
		v >>= 7
		if v > 0 {
			b |= 0x80
		}
		e.buf = append(e.buf, b)
	}
}

// readVarIntSigned 读取带显式符号位的变长整数。
func (d *Decoder) readVarIntSigned() (uint64, bool, error) {
	if d.pos >= len(d.buf) {
		return 0, false, ErrUnexpectedEndOfBuffer
	}
	b := d.buf[d.pos]
	d.pos++
	neg := b&0x40 != 0
	v := uint64(b & 0x3F)
	shift := uint(6)
	for b&0x80 != 0 {
		if d.pos >= len(d.buf) {
			return 0, false, ErrUnexpectedEndOfBuffer
		}
		b = d.buf[d.pos]
		d.pos++
		if shift >= 64 {
			return 0, false, ErrVarIntOverflow
		}
		v |= uint64(b&0x7F) << shift
		shift += 7
	}
	return v, neg, nil
}

// RleEncoder 对字节做游程编码：每个游程写为 (value, count-1)。
type RleEncoder struct {
	enc     *Encoder
	state   uint8
	count   uint64
	started bool
}

func NewRleEncoder() *RleEncoder {
	return &RleEncoder{enc: NewEncoder()}
}

func (r *RleEncoder) Write(v uint8) {
	if r.started && v == r.state {
		r.count++
		return
	}
	r.flush()
	r.state = v
	r.count = 1
	r.started = true
}

func (r *RleEncoder) flush() {
	if !r.started {
		return
	}
	r.enc.WriteUint8(r.state)
	r.enc.WriteVarUint(r.count - 1)
}

// Bytes 结束编码并返回列字节流。
func (r *RleEncoder) Bytes() []byte {
	r.flush()
	r.started = false
	return r.enc.Bytes()
}

// RleDecoder 与 RleEncoder 对应。
type RleDecoder struct {
	dec       *Decoder
	state     uint8
	remaining uint64
}

func NewRleDecoder(buf []byte) *RleDecoder {
	return &RleDecoder{dec: NewDecoder(buf)}
}

func (r *RleDecoder) Read() (uint8, error) {
	if r.remaining == 0 {
		v, err := r.dec.ReadUint8()
		if err != nil {
			return 0, err
		}
		n, err := r.dec.ReadVarUint()
		if err != nil {
			return 0, err
		}
		r.state = v
		r.remaining = n + 1
	}
	r.remaining--
	return r.state, nil
}

// UintOptRleEncoder 对无符号整数做可选游程编码。
// 单次出现写为正数；游程写为负数后跟 count-2。
type UintOptRleEncoder struct {
	enc     *Encoder
	state   uint64
	count   uint64
	started bool
}

func NewUintOptRleEncoder() *UintOptRleEncoder {
	return &UintOptRleEncoder{enc: NewEncoder()}
}

func (u *UintOptRleEncoder) Write(v uint64) {
	if u.started && v == u.state {
		u.count++
		return
	}
	u.flush()
	u.state = v
	u.count = 1
	u.started = true
}

func (u *UintOptRleEncoder) flush() {
	if !u.started {
		return
	}
	if u.count == 1 {
		u.enc.writeVarIntSigned(u.state, false)
	} else {
		u.enc.writeVarIntSigned(u.state, true)
		u.enc.WriteVarUint(u.count - 2)
	}
}

func (u *UintOptRleEncoder) Bytes() []byte {
	u.flush()
	u.started = false
	return u.enc.Bytes()
}

// UintOptRleDecoder 与 UintOptRleEncoder 对应。
type UintOptRleDecoder struct {
	dec       *Decoder
	state     uint64
	remaining uint64
}

func NewUintOptRleDecoder(buf []byte) *UintOptRleDecoder {
	return &UintOptRleDecoder{dec: NewDecoder(buf)}
}

func (u *UintOptRleDecoder) Read() (uint64, error) {
	if u.remaining == 0 {
		v, neg, err := u.dec.readVarIntSigned()
		if err != nil {
			return 0, err
		}
		u.state = v
		if neg {
			n, err := u.dec.ReadVarUint()
			if err != nil {
				return 0, err
			}
			u.remaining = n + 2
		} else {
			u.remaining = 1
		}
	}
	u.remaining--
	return u.state, nil
}

// IntDiffOptRleEncoder 写入相邻值的差分并对相同差分做游程编码。
// 编码为 varint(diff*2 | hasCount)，hasCount 时后跟 count-2。
// 适合单调递增的 clock 列。
type IntDiffOptRleEncoder struct {
	enc     *Encoder
	state   int64
	diff    int64
	count   uint64
	started bool
}

func NewIntDiffOptRleEncoder() *IntDiffOptRleEncoder {
	return &IntDiffOptRleEncoder{enc: NewEncoder()}
}

func (i *IntDiffOptRleEncoder) Write(v uint64) {
	d := int64(v) - i.state
	i.state = int64(v)
	if i.started && d == i.diff {
		i.count++
		return
	}
	i.flush()
	i.diff = d
	i.count = 1
	i.started = true
}

func (i *IntDiffOptRleEncoder) flush() {
	if !i.started {
		return
	}
	// hasCount 占用最低位；解码端按向下取整除二还原 diff。
	encoded := i.diff * 2
	if i.count > 1 {
		encoded++
	}
	i.enc.WriteVarInt(encoded)
	if i.count > 1 {
		i.enc.WriteVarUint(i.count - 2)
	}
}

func (i *IntDiffOptRleEncoder) Bytes() []byte {
	i.flush()
	i.started = false
	return i.enc.Bytes()
}

// IntDiffOptRleDecoder 与 IntDiffOptRleEncoder 对应。
type IntDiffOptRleDecoder struct {
	dec       *Decoder
	state     int64
	diff      int64
	remaining uint64
}

func NewIntDiffOptRleDecoder(buf []byte) *IntDiffOptRleDecoder {
	return &IntDiffOptRleDecoder{dec: NewDecoder(buf)}
}

func (i *IntDiffOptRleDecoder) Read() (uint64, error) {
	if i.remaining == 0 {
		v, err := i.dec.ReadVarInt()
		if err != nil {
			return 0, err
		}
		hasCount := v&1 != 0
		i.diff = (v - (v & 1)) / 2
		if hasCount {
			n, err := i.dec.ReadVarUint()
			if err != nil {
				return 0, err
			}
			i.remaining = n + 2
		} else {
			i.remaining = 1
		}
	}
	i.remaining--
	i.state += i.diff
	return uint64(i.state), nil
}

// StringEncoder 把一列字符串拼成一个大字符串，字节长度走 UintOptRle。
type StringEncoder struct {
	sb   []byte
	lens *UintOptRleEncoder
}

func NewStringEncoder() *StringEncoder {
	return &StringEncoder{lens: NewUintOptRleEncoder()}
}

func (s *StringEncoder) Write(str string) {
	s.sb = append(s.sb, str...)
	s.lens.Write(uint64(len(str)))
}

func (s *StringEncoder) Bytes() []byte {
	enc := NewEncoder()
	enc.WriteVarString(string(s.sb))
	enc.WriteUint8Array(s.lens.Bytes())
	return enc.Bytes()
}

// StringDecoder 与 StringEncoder 对应。
type StringDecoder struct {
	s    string
	pos  int
	lens *UintOptRleDecoder
	err  error
}

func NewStringDecoder(buf []byte) *StringDecoder {
	dec := NewDecoder(buf)
	s, err := dec.ReadVarString()
	sd := &StringDecoder{s: s, err: err}
	sd.lens = NewUintOptRleDecoder(dec.Rest())
	return sd
}

func (s *StringDecoder) Read() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	n, err := s.lens.Read()
	if err != nil {
		return "", err
	}
	if s.pos+int(n) > len(s.s) {
		return "", ErrUnexpectedEndOfBuffer
	}
	str := s.s[s.pos : s.pos+int(n)]
	s.pos += int(n)
	return str, nil
}
