package memoryx_test

import (
	"strings"
	"testing"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm/memoryx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
)

func sampleHistory() []llm.Message {
	return []llm.Message{
		llm.NewUserMessage("Question: what is DIKSHA?\n\nDocuments:\n\n"),
		llm.NewAssistantMessage(strings.Repeat("DIKSHA is a learning platform. ", 40)),
		llm.NewUserMessage("and in हिंदी?"),
		llm.NewAssistantMessage(""),
	}
}

func TestCodecPreservesHistoryForEveryCompression(t *testing.T) {
	for _, c := range []memoryx.Compression{
		memoryx.CompressionNone,
		memoryx.CompressionZlib,
		memoryx.CompressionZstd,
		memoryx.CompressionLZ4,
	} {
		payload, err := memoryx.NewCodec(c).Encode(sampleHistory())
		if err != nil {
			t.Fatalf("%s: encode: %v", c, err)
		}
		if payload[0] != byte(c) {
			t.Fatalf("%s: payload tag = %d", c, payload[0])
		}

		// Reading never depends on the reader's own compression setting.
		got, err := memoryx.NewCodec(memoryx.CompressionZlib).Decode(payload)
		if err != nil {
			t.Fatalf("%s: decode: %v", c, err)
		}
		want := sampleHistory()
		if len(got) != len(want) {
			t.Fatalf("%s: got %d messages, want %d", c, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s: message %d = %+v, want %+v", c, i, got[i], want[i])
			}
		}
	}
}

func TestCodecEmptyHistory(t *testing.T) {
	codec := memoryx.NewCodec(memoryx.CompressionLZ4)
	payload, err := codec.Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := codec.Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history, got %+v", got)
	}
}

func TestCodecCompressesRepetitiveHistory(t *testing.T) {
	plain, _ := memoryx.NewCodec(memoryx.CompressionNone).Encode(sampleHistory())
	packed, _ := memoryx.NewCodec(memoryx.CompressionZlib).Encode(sampleHistory())
	if len(packed) >= len(plain) {
		t.Fatalf("zlib payload %d bytes is not smaller than raw %d bytes", len(packed), len(plain))
	}
}

func TestCodecRejectsMalformedPayloads(t *testing.T) {
	codec := memoryx.NewCodec(memoryx.CompressionZlib)
	valid, _ := codec.Encode(sampleHistory())

	cases := map[string][]byte{
		"empty":         {},
		"unknown tag":   append([]byte{42}, valid[1:]...),
		"garbage zlib":  {byte(memoryx.CompressionZlib), 1, 2, 3, 4},
		"truncated":     valid[:len(valid)/2],
		"not cbor":      append([]byte{byte(memoryx.CompressionNone)}, []byte("hello")...),
		"truncated lz4": {byte(memoryx.CompressionLZ4)},
	}

	for name, payload := range cases {
		if _, err := codec.Decode(payload); !errx.HasCode(err, memoryx.ErrStoreCorruption) {
			t.Fatalf("%s: expected corruption error, got %v", name, err)
		}
	}
}

func TestCodecRejectsOversizedPayload(t *testing.T) {
	payload, _ := memoryx.NewCodec(memoryx.CompressionZlib).Encode(sampleHistory())
	small := memoryx.Codec{Compression: memoryx.CompressionZlib, MaxDecodedSize: 64}
	if _, err := small.Decode(payload); !errx.HasCode(err, memoryx.ErrStoreCorruption) {
		t.Fatalf("expected corruption error for oversized payload, got %v", err)
	}
}

func TestParseCompression(t *testing.T) {
	if c, err := memoryx.ParseCompression(""); err != nil || c != memoryx.CompressionZlib {
		t.Fatalf("empty should default to zlib, got %v %v", c, err)
	}
	if c, err := memoryx.ParseCompression("ZSTD"); err != nil || c != memoryx.CompressionZstd {
		t.Fatalf("expected zstd, got %v %v", c, err)
	}
	if _, err := memoryx.ParseCompression("brotli"); !errx.HasCode(err, memoryx.ErrUnknownCompression) {
		t.Fatalf("expected unknown compression, got %v", err)
	}
}
