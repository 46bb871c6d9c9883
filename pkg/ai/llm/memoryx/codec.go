package memoryx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
)

// Compression identifies the algorithm applied to an encoded history.
// The value is written as the first byte of every payload; changing the
// numbering makes existing sessions unreadable.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionZlib Compression = 1
	CompressionZstd Compression = 2
	CompressionLZ4  Compression = 3
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZlib:
		return "zlib"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a compression name. Empty selects zlib.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "zlib":
		return CompressionZlib, nil
	case "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, ErrRegistry.New(ErrUnknownCompression).WithDetail("compression", name)
	}
}

// DefaultMaxDecodedSize bounds how large a decompressed history may grow.
const DefaultMaxDecodedSize = 16 << 20

const envelopeVersion = 1

type record struct {
	Role    string `cbor:"r"`
	Content string `cbor:"c"`
}

type envelope struct {
	Version  int      `cbor:"v"`
	Messages []record `cbor:"m"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode

	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("memoryx: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{MaxArrayElements: 1 << 20}.DecMode()
	if err != nil {
		panic("memoryx: CBOR decoder initialization failed: " + err.Error())
	}

	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("memoryx: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(DefaultMaxDecodedSize))
	if err != nil {
		panic("memoryx: zstd decoder initialization failed: " + err.Error())
	}
}

// Codec turns a history into the opaque payload kept in the store and back.
// Decode accepts payloads written with any Compression, whatever the codec's
// own setting.
type Codec struct {
	Compression    Compression
	MaxDecodedSize int
}

// NewCodec returns a codec writing with c
func NewCodec(c Compression) Codec {
	return Codec{Compression: c, MaxDecodedSize: DefaultMaxDecodedSize}
}

// Encode serializes history as CBOR, compresses it and prefixes the compression tag
func (c Codec) Encode(history []llm.Message) ([]byte, error) {
	env := envelope{Version: envelopeVersion, Messages: make([]record, len(history))}
	for i, m := range history {
		env.Messages[i] = record{Role: string(m.Role), Content: m.Content}
	}

	raw, err := encMode.Marshal(env)
	if err != nil {
		return nil, ErrRegistry.NewWithCause(ErrEncode, err)
	}

	body, err := compress(raw, c.Compression)
	if err != nil {
		return nil, ErrRegistry.NewWithCause(ErrEncode, err).WithDetail("compression", c.Compression.String())
	}

	out := make([]byte, 0, len(body)+1)
	out = append(out, byte(c.Compression))
	return append(out, body...), nil
}

// Decode reverses Encode. Any malformed payload yields ErrStoreCorruption.
func (c Codec) Decode(payload []byte) ([]llm.Message, error) {
	if len(payload) == 0 {
		return nil, corrupt("empty payload", nil)
	}

	limit := c.MaxDecodedSize
	if limit <= 0 {
		limit = DefaultMaxDecodedSize
	}

	tag := Compression(payload[0])
	raw, err := decompress(payload[1:], tag, limit)
	if err != nil {
		return nil, corrupt("decompress", err).WithDetail("compression", tag.String())
	}

	var env envelope
	if err := decMode.Unmarshal(raw, &env); err != nil {
		return nil, corrupt("decode", err)
	}
	if env.Version != envelopeVersion {
		return nil, corrupt("unsupported version", nil).WithDetail("version", env.Version)
	}

	history := make([]llm.Message, len(env.Messages))
	for i, r := range env.Messages {
		role := llm.Role(r.Role)
		if !role.Valid() {
			return nil, corrupt("invalid role", nil).WithDetail("index", i).WithDetail("role", r.Role)
		}
		history[i] = llm.Message{Role: role, Content: r.Content}
	}
	return history, nil
}

func compress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil

	case CompressionZlib:
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case CompressionZstd:
		return zstdEncoder.EncodeAll(data, nil), nil

	case CompressionLZ4:
		// Block format: uvarint uncompressed length, a mode byte, then the block.
		// Mode 0 stores incompressible input verbatim.
		out := binary.AppendUvarint(nil, uint64(len(data)))
		block := make([]byte, lz4.CompressBlockBound(len(data)))
		written, err := lz4.CompressBlock(data, block, nil)
		if err != nil {
			return nil, err
		}
		if written == 0 || written >= len(data) {
			out = append(out, 0)
			return append(out, data...), nil
		}
		out = append(out, 1)
		return append(out, block[:written]...), nil

	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
}

func decompress(body []byte, c Compression, limit int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(body) > limit {
			return nil, fmt.Errorf("payload exceeds %d bytes", limit)
		}
		return body, nil

	case CompressionZlib:
		r, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		out, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
		if err != nil {
			return nil, err
		}
		if len(out) > limit {
			return nil, fmt.Errorf("payload exceeds %d bytes", limit)
		}
		return out, nil

	case CompressionZstd:
		out, err := zstdDecoder.DecodeAll(body, nil)
		if err != nil {
			return nil, err
		}
		if len(out) > limit {
			return nil, fmt.Errorf("payload exceeds %d bytes", limit)
		}
		return out, nil

	case CompressionLZ4:
		size, n := binary.Uvarint(body)
		if n <= 0 || len(body) < n+1 {
			return nil, fmt.Errorf("lz4 header truncated")
		}
		if size > uint64(limit) {
			return nil, fmt.Errorf("payload exceeds %d bytes", limit)
		}
		mode, block := body[n], body[n+1:]
		if mode == 0 {
			if uint64(len(block)) != size {
				return nil, fmt.Errorf("lz4 stored block: got %d bytes, expected %d", len(block), size)
			}
			return block, nil
		}
		out := make([]byte, size)
		read, err := lz4.UncompressBlock(block, out)
		if err != nil {
			return nil, err
		}
		if uint64(read) != size {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
}

func corrupt(reason string, cause error) *errx.Error {
	if cause == nil {
		return ErrRegistry.NewWithMessage(ErrStoreCorruption, ErrStoreCorruption.Message+": "+reason)
	}
	e := ErrRegistry.NewWithCause(ErrStoreCorruption, cause)
	e.Message = ErrStoreCorruption.Message + ": " + reason
	return e
}
