package buffers

import (
	"github.com/bloeys/deferred/assert"
)

// Element is one attribute of an interleaved vertex, Offset bytes from the start of the vertex
type Element struct {
	Offset int
	ElementType
}

// ElementType is the float vector type of a vertex attribute. Its value is its component count.
type ElementType uint8

const (
	DataTypeVec2 ElementType = 2
	DataTypeVec3 ElementType = 3
)

func (dt ElementType) CompCount() int32 {
	assert.T(dt == DataTypeVec2 || dt == DataTypeVec3, "Unsupported vertex element type '%d'", dt)
	return int32(dt)
}

// Size returns the size in bytes, 12 for a Vec3
func (dt ElementType) Size() int32 {
	return dt.CompCount() * 4
}
