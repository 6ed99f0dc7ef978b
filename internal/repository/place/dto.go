package place

import (
	"encoding/binary"
	"math"

	domplace "github.com/kailas-cloud/chatmaps/internal/domain/place"
)

// buildHashFields flattens an entry into HSET fields: metadata plus content and vector.
func buildHashFields(e *domplace.Entry) map[string]string {
	m := e.Metadata.Fields()
	m[contentField] = e.Text
	m[vectorField] = vectorToBytes(e.Vector)
	return m
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
