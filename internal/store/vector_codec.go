package store

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeVector serializes a unit-norm f32 vector as a little-endian byte
// blob, per §3's ChunkEmbedding/NoteEmbedding storage format.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector deserializes a little-endian f32 blob, validating that its
// length is a multiple of 4 (invariant 3: dim == len(blob)/4).
func DecodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(blob))
	}
	v := make([]float32, len(blob)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return v, nil
}
