package softgl

import (
	"math"

	"github.com/bloeys/deferred/gpu"
)

// sample reads the texture at uv with clamp to edge wrapping. Missing or unallocated textures
// sample as (0,0,0,1).
func (t *texture) sample(u, v float32) [4]float32 {

	if t == nil || t.width == 0 || t.height == 0 {
		return [4]float32{0, 0, 0, 1}
	}

	var c [4]float32
	if t.magFilter == gpu.Filter_Nearest {
		x := clampInt(int32(math.Floor(float64(u*float32(t.width)))), 0, t.width-1)
		y := clampInt(int32(math.Floor(float64(v*float32(t.height)))), 0, t.height-1)
		c = t.texel(x, y)
	} else {
		c = t.bilinear(u, v)
	}

	if t.format == gpu.Format_SRGBA {
		for i := 0; i < 3; i++ {
			c[i] = srgbToLinear(c[i])
		}
	}

	return c
}

func (t *texture) texel(x, y int32) [4]float32 {
	i := (y*t.width + x) * 4
	return [4]float32{t.data[i], t.data[i+1], t.data[i+2], t.data[i+3]}
}

func (t *texture) bilinear(u, v float32) [4]float32 {

	fx := u*float32(t.width) - 0.5
	fy := v*float32(t.height) - 0.5

	x0 := float32(math.Floor(float64(fx)))
	y0 := float32(math.Floor(float64(fy)))
	tx, ty := fx-x0, fy-y0

	ix0 := clampInt(int32(x0), 0, t.width-1)
	iy0 := clampInt(int32(y0), 0, t.height-1)
	ix1 := clampInt(int32(x0)+1, 0, t.width-1)
	iy1 := clampInt(int32(y0)+1, 0, t.height-1)

	c00, c10 := t.texel(ix0, iy0), t.texel(ix1, iy0)
	c01, c11 := t.texel(ix0, iy1), t.texel(ix1, iy1)

	var out [4]float32
	for i := 0; i < 4; i++ {
		bottom := c00[i] + (c10[i]-c00[i])*tx
		top := c01[i] + (c11[i]-c01[i])*tx
		out[i] = bottom + (top-bottom)*ty
	}

	return out
}

func srgbToLinear(c float32) float32 {

	if c <= 0.04045 {
		return c / 12.92
	}

	return float32(math.Pow((float64(c)+0.055)/1.055, 2.4))
}

func clampInt(v, lo, hi int32) int32 {
	return max(lo, min(v, hi))
}
