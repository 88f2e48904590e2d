// Package codec holds the on-disk encodings used for memory snapshots.
package codec

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

var (
	encOnce sync.Once
	decOnce sync.Once
	enc     *zstd.Encoder
	dec     *zstd.Decoder
	encErr  error
	decErr  error
)

// Snapshots are written rarely and read back whole, so favour ratio.
func encoder() (*zstd.Encoder, error) {
	encOnce.Do(func() {
		enc, encErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	})
	return enc, encErr
}

func decoder() (*zstd.Decoder, error) {
	decOnce.Do(func() {
		dec, decErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
	return dec, decErr
}

func Compress(data []byte) ([]byte, error) {
	e, err := encoder()
	if err != nil {
		return nil, err
	}
	return e.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func Decompress(data []byte) ([]byte, error) {
	d, err := decoder()
	if err != nil {
		return nil, err
	}
	return d.DecodeAll(data, nil)
}
