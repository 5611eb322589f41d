package softgl

import (
	"encoding/binary"
	"math"

	"github.com/bloeys/deferred/gpu"
)

type clipVertex struct {
	pos  [4]float32
	vary Varyings
}

type screenVertex struct {
	x, y, z float32
	invW    float32
	vary    Varyings
}

type colorTarget struct {
	format gpu.Format
	width  int32
	data   []float32
}

type renderTarget struct {
	width  int32
	height int32
	// Indexed by fragment output location
	colors [gpu.MaxColorAttachments]*colorTarget

	depth      []float32
	depthWidth int32
	depthStep  int32
}

func (b *Backend) DrawElements(indexCount int32) {

	prog := b.programs[b.boundProgram]
	if prog == nil {
		b.setErr(InvalidOperation, "DrawElements with no program bound")
		return
	}

	vao := b.vertexArrays[b.boundVao]
	if vao == nil {
		b.setErr(InvalidOperation, "DrawElements with no vertex array bound")
		return
	}

	indices := b.buffers[vao.elementBuffer]
	if int(indexCount)*4 > len(indices) {
		b.setErr(InvalidOperation, "DrawElements of %d indices but element buffer only has %d", indexCount, len(indices)/4)
		return
	}

	b.draws = append(b.draws, DrawCall{
		Program:     b.boundProgram,
		Framebuffer: b.boundFbo,
		VertexArray: b.boundVao,
		IndexCount:  indexCount,
		ActiveUnit:  b.activeUnit,
		Textures:    b.units,
		Viewport:    b.viewport,
	})

	if b.boundFbo != 0 && b.CheckFramebufferStatus() != gpu.FramebufferStatus_Complete {
		b.setErr(InvalidFbOp, "DrawElements to incomplete framebuffer %d", b.boundFbo)
		return
	}

	tgt := b.renderTarget()
	processed := make(map[uint32]clipVertex, indexCount)

	var tri [3]clipVertex
	for i := int32(0); i+2 < indexCount; i += 3 {

		for j := int32(0); j < 3; j++ {

			index := binary.NativeEndian.Uint32(indices[(i+j)*4:])
			v, ok := processed[index]
			if !ok {
				v = b.runVertexShader(prog, vao, index)
				processed[index] = v
			}

			tri[j] = v
		}

		poly := clipNear(tri[:])
		for k := 1; k+1 < len(poly); k++ {
			b.rasterTriangle(prog, &tgt, poly[0], poly[k], poly[k+1])
		}
	}
}

func (b *Backend) renderTarget() renderTarget {

	if b.boundFbo == 0 {
		t := renderTarget{
			width:      b.width,
			height:     b.height,
			depth:      b.defaultDepth,
			depthWidth: b.width,
			depthStep:  1,
		}
		t.colors[0] = &colorTarget{format: gpu.Format_RGBA8, width: b.width, data: b.defaultColor}
		return t
	}

	fbo := b.framebuffers[b.boundFbo]
	t := renderTarget{width: math.MaxInt32, height: math.MaxInt32}

	// Rendering is limited to the area shared by all attachments
	for _, a := range fbo.attachments {
		if _, w, h, ok := b.attachmentFormat(a); ok {
			t.width = min(t.width, w)
			t.height = min(t.height, h)
		}
	}

	for loc := 0; loc < len(fbo.drawBuffers); loc++ {
		if tex := b.textures[fbo.attachments[fbo.drawBuffers[loc]].texId]; tex != nil {
			t.colors[loc] = &colorTarget{format: tex.format, width: tex.width, data: tex.data}
		}
	}

	t.depth, t.depthWidth, t.depthStep = b.depthTarget(fbo)
	return t
}

func (b *Backend) runVertexShader(prog *Program, vao *vertexArray, index uint32) clipVertex {

	var in Attribs
	for i := 0; i < MaxAttribs; i++ {

		in[i] = [4]float32{0, 0, 0, 1}

		a := &vao.attribs[i]
		if !a.enabled {
			continue
		}

		data := b.buffers[a.buffer]
		start := a.offset + int(index)*int(a.stride)
		for c := 0; c < int(a.compCount); c++ {

			pos := start + c*4
			if pos+4 > len(data) {
				break
			}

			in[i][c] = math.Float32frombits(binary.NativeEndian.Uint32(data[pos:]))
		}
	}

	var v clipVertex
	v.pos = prog.vertex(prog, &in, &v.vary)
	return v
}

// clipNear clips a triangle against the near plane (z >= -w) and returns the resulting convex polygon
func clipNear(tri []clipVertex) []clipVertex {

	dist := func(v *clipVertex) float32 { return v.pos[2] + v.pos[3] }

	out := make([]clipVertex, 0, 4)
	for i := 0; i < len(tri); i++ {

		cur := &tri[i]
		next := &tri[(i+1)%len(tri)]
		dCur, dNext := dist(cur), dist(next)

		if dCur >= 0 {
			out = append(out, *cur)
		}

		if (dCur >= 0) != (dNext >= 0) {
			t := dCur / (dCur - dNext)
			out = append(out, lerpVertex(cur, next, t))
		}
	}

	return out
}

func lerpVertex(a, b *clipVertex, t float32) clipVertex {

	var v clipVertex
	for i := 0; i < 4; i++ {
		v.pos[i] = a.pos[i] + (b.pos[i]-a.pos[i])*t
	}

	for i := 0; i < MaxVaryings; i++ {
		v.vary[i] = a.vary[i] + (b.vary[i]-a.vary[i])*t
	}

	return v
}

func (b *Backend) toScreen(v clipVertex) screenVertex {

	invW := 1 / v.pos[3]
	vx, vy := float32(b.viewport[0]), float32(b.viewport[1])
	vw, vh := float32(b.viewport[2]), float32(b.viewport[3])

	return screenVertex{
		x:    (v.pos[0]*invW+1)*0.5*vw + vx,
		y:    (v.pos[1]*invW+1)*0.5*vh + vy,
		z:    (v.pos[2]*invW + 1) * 0.5,
		invW: invW,
		vary: v.vary,
	}
}

func edge(ax, ay, bx, by, cx, cy float32) float32 {
	return (bx-ax)*(cy-ay) - (by-ay)*(cx-ax)
}

func (b *Backend) rasterTriangle(prog *Program, tgt *renderTarget, c0, c1, c2 clipVertex) {

	if c0.pos[3] <= 0 || c1.pos[3] <= 0 || c2.pos[3] <= 0 {
		return
	}

	v0, v1, v2 := b.toScreen(c0), b.toScreen(c1), b.toScreen(c2)

	area := edge(v0.x, v0.y, v1.x, v1.y, v2.x, v2.y)
	if area == 0 || (area < 0 && b.CullBackFaces) {
		return
	}

	// Rasterize clockwise triangles the same way as counter clockwise ones
	if area < 0 {
		v1, v2 = v2, v1
		area = -area
	}

	minX := max(int32(math.Floor(float64(min(v0.x, v1.x, v2.x)))), b.viewport[0], 0)
	minY := max(int32(math.Floor(float64(min(v0.y, v1.y, v2.y)))), b.viewport[1], 0)
	maxX := min(int32(math.Ceil(float64(max(v0.x, v1.x, v2.x)))), b.viewport[0]+b.viewport[2], tgt.width)
	maxY := min(int32(math.Ceil(float64(max(v0.y, v1.y, v2.y)))), b.viewport[1]+b.viewport[3], tgt.height)

	frag := Fragment{prog: prog}
	for py := minY; py < maxY; py++ {
		for px := minX; px < maxX; px++ {

			cx, cy := float32(px)+0.5, float32(py)+0.5

			b0 := edge(v1.x, v1.y, v2.x, v2.y, cx, cy) / area
			b1 := edge(v2.x, v2.y, v0.x, v0.y, cx, cy) / area
			b2 := edge(v0.x, v0.y, v1.x, v1.y, cx, cy) / area
			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}

			z := b0*v0.z + b1*v1.z + b2*v2.z
			depthIndex := (py*tgt.depthWidth + px) * tgt.depthStep

			if b.depthTest && tgt.depth != nil && !(z < tgt.depth[depthIndex]) {
				continue
			}

			// Perspective correct weights
			p0, p1, p2 := b0*v0.invW, b1*v1.invW, b2*v2.invW
			sum := p0 + p1 + p2
			p0, p1, p2 = p0/sum, p1/sum, p2/sum

			for i := 0; i < MaxVaryings; i++ {
				frag.In[i] = p0*v0.vary[i] + p1*v1.vary[i] + p2*v2.vary[i]
			}

			frag.Coord = [3]float32{cx, cy, z}
			frag.Out = [gpu.MaxColorAttachments][4]float32{}
			frag.Discard = false

			prog.fragment(&frag)
			if frag.Discard {
				continue
			}

			if b.depthTest && tgt.depth != nil {
				tgt.depth[depthIndex] = z
			}

			for loc := 0; loc < len(tgt.colors); loc++ {

				ct := tgt.colors[loc]
				if ct == nil {
					continue
				}

				c := storeTexel(ct.format, frag.Out[loc])
				pixel := (py*ct.width + px) * 4
				copy(ct.data[pixel:pixel+4], c[:])
			}
		}
	}
}
