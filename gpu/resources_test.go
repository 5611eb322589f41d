package gpu_test

import (
	"testing"

	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/softgl"
)

func TestReleaseDeletesOnLastOwner(t *testing.T) {

	var deleted []gpu.Ref
	res := gpu.NewResources(func(r gpu.Ref) { deleted = append(deleted, r) })

	ref := res.Track(gpu.Ref{Kind: gpu.Kind_Texture, Id: 7})
	res.Retain(ref)

	if res.RefCount(ref) != 2 {
		t.Fatalf("Expected ref count 2, got %d", res.RefCount(ref))
	}

	if res.Release(ref) {
		t.Fatalf("Expected first release to keep the object alive")
	}

	if len(deleted) != 0 {
		t.Fatalf("Expected no deletes yet, got %v", deleted)
	}

	if !res.Release(ref) {
		t.Fatalf("Expected last release to delete the object")
	}

	if len(deleted) != 1 || deleted[0] != ref {
		t.Fatalf("Expected exactly one delete of %s, got %v", ref, deleted)
	}

	// Extra releases are ignored, never a double delete
	if res.Release(ref) || len(deleted) != 1 {
		t.Fatalf("Expected release of deleted ref to be ignored, deletes: %v", deleted)
	}

	if res.Live() != 0 {
		t.Fatalf("Expected no live objects, got %d", res.Live())
	}
}

func TestTrackTwicePanics(t *testing.T) {

	res := gpu.NewResources(nil)
	ref := res.Track(gpu.Ref{Kind: gpu.Kind_Buffer, Id: 1})

	defer func() {
		if recover() == nil {
			t.Fatalf("Expected tracking %s twice to panic", ref)
		}
	}()

	res.Track(ref)
}

func TestContextObjectsAreDeletedOnBackend(t *testing.T) {

	backend := softgl.New(4, 4)
	ctx := gpu.NewContext(backend, 4, 4)

	refs := []gpu.Ref{
		ctx.NewTexture(),
		ctx.NewRenderbuffer(),
		ctx.NewFramebuffer(),
		ctx.NewBuffer(),
		ctx.NewVertexArray(),
	}

	if backend.Live() != len(refs) || ctx.Res.Live() != len(refs) {
		t.Fatalf("Expected %d live objects, backend has %d and context has %d", len(refs), backend.Live(), ctx.Res.Live())
	}

	for _, r := range refs {
		ctx.Res.Release(r)
	}

	if backend.Live() != 0 {
		t.Fatalf("Expected all objects deleted on the backend, %d left", backend.Live())
	}
}
