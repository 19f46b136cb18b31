package lib0

import "fmt"

// 任意值编码。类型标签从 127 向下分配：
//
//	127 undefined, 126 null, 125 整数 (varint), 124 float32, 123 float64,
//	122 int64, 121 false, 120 true, 119 string, 118 map, 117 array,
//	116 字节数组。
const (
	anyUndefined = 127
	anyNull      = 126
	anyInteger   = 125
	anyFloat32   = 124
	anyFloat64   = 123
	anyInt64     = 122
	anyFalse     = 121
	anyTrue      = 120
	anyString    = 119
	anyMap       = 118
	anyArray     = 117
	anyBytes     = 116
)

const maxSafeVarInteger = int64(1) << 53

// WriteAny 写入一个动态类型的值。
// 支持 nil、bool、int/int32/uint32/int64、float32/float64、string、[]byte、
// []any 和 map[string]any；其他类型（包括 uint64 等整数类型）返回错误。
func (e *Encoder) WriteAny(v any) error {
	switch val := v.(type) {
	case nil:
		e.WriteUint8(anyNull)
	case bool:
		if val {
			e.WriteUint8(anyTrue)
		} else {
			e.WriteUint8(anyFalse)
		}
	case int:
		return e.WriteAny(int64(val))
	case int32:
		return e.WriteAny(int64(val))
	case uint32:
		return e.WriteAny(int64(val))
	case int64:
		if val >= -maxSafeVarInteger && val <= maxSafeVarInteger {
			e.WriteUint8(anyInteger)
			e.WriteVarInt(val)
		} else {
			e.WriteUint8(anyInt64)
			e.writeInt64(val)
		}
	case float32:
		e.WriteUint8(anyFloat32)
		e.writeFloat32(val)
	case float64:
		e.WriteUint8(anyFloat64)
		e.writeFloat64(val)
	case string:
		e.WriteUint8(anyString)
		e.WriteVarString(val)
	case []byte:
		e.WriteUint8(anyBytes)
		e.WriteVarUint8Array(val)
	case []any:
		e.WriteUint8(anyArray)
		e.WriteVarUint(uint64(len(val)))
		for _, item := range val {
			if err := e.WriteAny(item); err != nil {
				return err
			}
		}
	case map[string]any:
		e.WriteUint8(anyMap)
		e.WriteVarUint(uint64(len(val)))
		for k, item := range val {
			e.WriteVarString(k)
			if err := e.WriteAny(item); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("cannot encode value of type %T", v)
	}
	return nil
}

// ReadAny 读取一个动态类型的值，未知标签视为格式错误。
func (d *Decoder) ReadAny() (any, error) {
	tag, err := d.ReadUint8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case anyUndefined, anyNull:
		return nil, nil
	case anyInteger:
		return d.ReadVarInt()
	case anyFloat32:
		return d.readFloat32()
	case anyFloat64:
		return d.readFloat64()
	case anyInt64:
		return d.readInt64()
	case anyFalse:
		return false, nil
	case anyTrue:
		return true, nil
	case anyString:
		return d.ReadVarString()
	case anyBytes:
		return d.ReadVarUint8Array()
	case anyArray:
		n, err := d.ReadVarUint()
		if err != nil {
			return nil, err
		}
		arr := make([]any, 0, n)
		for i := uint64(0); i < n; i++ {
			item, err := d.ReadAny()
			if err != nil {
				return nil, err
			}
			arr = append(arr, item)
		}
		return arr, nil
	case anyMap:
		n, err := d.ReadVarUint()
		if err != nil {
			return nil, err
		}
		m := make(map[string]any, n)
		for i := uint64(0); i < n; i++ {
			k, err := d.ReadVarString()
			if err != nil {
				return nil, err
			}
			item, err := d.ReadAny()
			if err != nil {
				return nil, err
			}
			m[k] = item
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown any-value tag %d", tag)
	}
}
