package codec

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// zstd frames start with this magic number.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// ErrEmpty is returned when decoding zero bytes.
var ErrEmpty = errors.New("empty payload")

// MarshalCompressed encodes v as YAML and compresses the result.
func MarshalCompressed(v any) ([]byte, error) {
	raw, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return Compress(raw)
}

// UnmarshalCompressed reverses MarshalCompressed. Plain YAML input is
// accepted too, so hand-edited snapshots can be imported.
func UnmarshalCompressed(data []byte, v any) error {
	if len(data) == 0 {
		return ErrEmpty
	}
	raw := data
	if IsCompressed(data) {
		var err error
		if raw, err = Decompress(data); err != nil {
			return fmt.Errorf("decompress: %w", err)
		}
	}
	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}
