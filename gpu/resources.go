package gpu

import (
	"fmt"

	"github.com/bloeys/deferred/assert"
	"github.com/bloeys/deferred/logging"
)

type Kind uint8

const (
	Kind_Unknown Kind = iota
	Kind_Texture
	Kind_Renderbuffer
	Kind_Framebuffer
	Kind_Buffer
	Kind_VertexArray
)

func (k Kind) String() string {

	switch k {
	case Kind_Texture:
		return "Texture"
	case Kind_Renderbuffer:
		return "Renderbuffer"
	case Kind_Framebuffer:
		return "Framebuffer"
	case Kind_Buffer:
		return "Buffer"
	case Kind_VertexArray:
		return "VertexArray"
	default:
		return "Unknown"
	}
}

// Ref identifies one driver object. Refs are plain values and are safe to copy,
// ownership is expressed by Retain/Release on the Resources that tracks them.
type Ref struct {
	Kind Kind
	Id   uint32
}

func (r Ref) IsZero() bool {
	return r.Id == 0
}

func (r Ref) String() string {
	return fmt.Sprintf("%s#%d", r.Kind, r.Id)
}

// Resources is an arena of reference counted driver objects.
//
// Objects shared between several owners (e.g. a framebuffer's textures that are also
// sampled by a screen quad) are only deleted once every owner released them.
type Resources struct {
	counts   map[Ref]int32
	onDelete func(Ref)
}

// Track starts tracking a newly created object with a reference count of one
func (r *Resources) Track(ref Ref) Ref {

	assert.T(!ref.IsZero(), "can not track zero ref of kind %s", ref.Kind)

	_, exists := r.counts[ref]
	assert.T(!exists, "ref %s is already tracked", ref)

	r.counts[ref] = 1
	return ref
}

// Retain adds an owner to an already tracked object
func (r *Resources) Retain(ref Ref) Ref {

	count, ok := r.counts[ref]
	assert.T(ok, "can not retain untracked ref %s", ref)

	r.counts[ref] = count + 1
	return ref
}

// Release removes one owner of the object, deleting it if it was the last one.
// Returns true if the object was deleted.
func (r *Resources) Release(ref Ref) bool {

	count, ok := r.counts[ref]
	if !ok {
		logging.WarnLog.Printf("release of untracked or already deleted ref %s ignored\n", ref)
		return false
	}

	count--
	if count > 0 {
		r.counts[ref] = count
		return false
	}

	delete(r.counts, ref)
	if r.onDelete != nil {
		r.onDelete(ref)
	}

	return true
}

// RefCount returns the number of owners of the object, zero if it is not tracked
func (r *Resources) RefCount(ref Ref) int32 {
	return r.counts[ref]
}

// Live returns the number of tracked objects
func (r *Resources) Live() int {
	return len(r.counts)
}

func NewResources(onDelete func(Ref)) *Resources {
	return &Resources{
		counts:   make(map[Ref]int32),
		onDelete: onDelete,
	}
}
