package y

import "sync"

// Codec 把一个 wire 版本的编解码器工厂打包在一起。
// 显式传入 Codec 的入口不受全局默认值影响。
type Codec struct {
	// Version 是 wire 版本号，1 或 2。
	Version int

	NewUpdateEncoder func() UpdateEncoder
	NewUpdateDecoder func(buf []byte) (UpdateDecoder, error)
	NewDSEncoder     func() DSEncoder
	NewDSDecoder     func(buf []byte) (DSDecoder, error)
}

// V1Codec 返回 v1 格式的编解码配置。
func V1Codec() Codec {
	return Codec{
		Version:          1,
		NewUpdateEncoder: func() UpdateEncoder { return NewUpdateEncoderV1() },
		NewUpdateDecoder: func(buf []byte) (UpdateDecoder, error) { return NewUpdateDecoderV1(buf), nil },
		NewDSEncoder:     func() DSEncoder { return NewDSEncoderV1() },
		NewDSDecoder:     func(buf []byte) (DSDecoder, error) { return NewDSDecoderV1(buf), nil },
	}
}

// V2Codec 返回 v2 格式的编解码配置。
func V2Codec() Codec {
	return Codec{
		Version:          2,
		NewUpdateEncoder: func() UpdateEncoder { return NewUpdateEncoderV2() },
		NewUpdateDecoder: func(buf []byte) (UpdateDecoder, error) { return NewUpdateDecoderV2(buf) },
		NewDSEncoder:     func() DSEncoder { return NewDSEncoderV2() },
		NewDSDecoder:     func(buf []byte) (DSDecoder, error) { return NewDSDecoderV2(buf) },
	}
}

var (
	defaultCodecMu sync.Mutex
	defaultUseV2   bool
)

// UseV2Encoding 把进程级默认格式切到 v2。幂等，预期只在启动时调用，
// 只影响没有显式指定 Codec 的代码路径。
func UseV2Encoding() {
	defaultCodecMu.Lock()
	defaultUseV2 = true
	defaultCodecMu.Unlock()
}

// DefaultCodec 返回当前的进程级默认编解码配置。
func DefaultCodec() Codec {
	defaultCodecMu.Lock()
	v2 := defaultUseV2
	defaultCodecMu.Unlock()
	if v2 {
		return V2Codec()
	}
	return V1Codec()
}
