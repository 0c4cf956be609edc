package ddx

import (
	"encoding/binary"

	"github.com/oriath-net/gooz"
)

// BlockCodec decompresses one framed chunk from the front of src. It returns
// the decompressed bytes and how many source bytes it consumed; consumed 0
// with a nil error means the remaining input is not a valid chunk and the
// tail is unrecoverable.
type BlockCodec interface {
	DecompressBlock(src []byte) (out []byte, consumed int, err error)
}

// goozCodec decodes the chunk framing used for compressed texture payloads:
// a big-endian u16 raw length and u16 compressed length, then the chunk
// data. Equal lengths mark a stored chunk.
type goozCodec struct{}

func (goozCodec) DecompressBlock(src []byte) ([]byte, int, error) {
	if len(src) < 4 {
		return nil, 0, nil
	}
	rawLen := int(binary.BigEndian.Uint16(src))
	compLen := int(binary.BigEndian.Uint16(src[2:]))
	if rawLen == 0 || compLen == 0 || compLen > rawLen || 4+compLen > len(src) {
		return nil, 0, nil
	}

	consumed := 4 + compLen
	if compLen == rawLen {
		return src[4:consumed], consumed, nil
	}

	out := make([]byte, rawLen)
	if _, err := gooz.Decompress(src[4:consumed], out); err != nil {
		// A chunk that fails to decode poisons everything after it; the
		// caller keeps what was recovered so far.
		return nil, 0, nil
	}
	return out, consumed, nil
}

// decompressChunks runs a codec over a chunk stream until want bytes are
// produced or the stream gives out. The returned buffer is always want bytes,
// zero-filled past the recovered count; n reports how much was recovered.
func decompressChunks(src []byte, want int64, codec BlockCodec) ([]byte, int64, error) {
	out := make([]byte, want)
	var n int64
	for n < want && len(src) > 0 {
		chunk, consumed, err := codec.DecompressBlock(src)
		if err != nil {
			return nil, 0, err
		}
		if consumed == 0 {
			break
		}
		n += int64(copy(out[n:], chunk))
		src = src[consumed:]
	}
	return out, n, nil
}
