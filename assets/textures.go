package assets

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/bloeys/deferred/gpu"
	"github.com/bloeys/deferred/logging"
	"github.com/mandykoh/prism"
)

type TextureLoadOptions struct {
	// NoSrgba stores the texture as linear RGBA8 instead of sRGB. Use it for data textures (normals, roughness)
	NoSrgba bool
	// Nearest uses nearest filtering instead of linear
	Nearest bool
}

func (o *TextureLoadOptions) format() gpu.Format {
	if o.NoSrgba {
		return gpu.Format_RGBA8
	}
	return gpu.Format_SRGBA
}

func (o *TextureLoadOptions) filter() gpu.Filter {
	if o.Nearest {
		return gpu.Filter_Nearest
	}
	return gpu.Filter_Linear
}

type Texture struct {
	// Path only set if the texture was loaded from a file
	Path   string
	Ref    gpu.Ref
	Width  int32
	Height int32
	// RGBA8 pixels, rows from the bottom
	Pixels []byte

	ctx *gpu.Context
}

func (t *Texture) TexID() uint32 {
	return t.Ref.Id
}

// Delete releases the loader's reference to the texture. Meshes using it keep it alive.
func (t *Texture) Delete() {

	if t.Ref.IsZero() {
		return
	}

	t.ctx.Res.Release(t.Ref)
	t.Ref = gpu.Ref{}
}

// NewTextureRGBA uploads tightly packed RGBA8 pixels, rows from the bottom, to a new texture.
// Texture bindings are unchanged after the call.
func NewTextureRGBA(ctx *gpu.Context, pixels []byte, width, height int32, opts *TextureLoadOptions) (Texture, error) {

	if opts == nil {
		opts = &TextureLoadOptions{}
	}

	if width <= 0 || height <= 0 || len(pixels) != int(width*height*4) {
		return Texture{}, fmt.Errorf("invalid texture data of %d bytes for size %dx%d", len(pixels), width, height)
	}

	tex := Texture{
		Ref:    ctx.NewTexture(),
		Width:  width,
		Height: height,
		Pixels: pixels,
		ctx:    ctx,
	}

	if tex.Ref.IsZero() {
		return Texture{}, fmt.Errorf("failed to generate texture. GlError=%d", ctx.Gl.GetError())
	}

	prev := ctx.BindTexture(tex.Ref.Id)
	ctx.Gl.TexImage2D(opts.format(), width, height, pixels)
	ctx.Gl.TexFilter(opts.filter(), opts.filter())
	ctx.BindTexture(prev)

	return tex, nil
}

// NewSolidTexture creates a 1x1 texture of the given color
func NewSolidTexture(ctx *gpu.Context, r, g, b, a uint8, opts *TextureLoadOptions) (Texture, error) {
	return NewTextureRGBA(ctx, []byte{r, g, b, a}, 1, 1, opts)
}

func LoadTexturePNG(ctx *gpu.Context, file string, opts *TextureLoadOptions) (Texture, error) {

	f, err := os.Open(file)
	if err != nil {
		return Texture{}, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return Texture{}, fmt.Errorf("failed to decode png '%s'. Err: %w", file, err)
	}

	nrgba := prism.ConvertImageToNRGBA(img, 2)
	pixels := flipRows(nrgba)

	bounds := nrgba.Bounds()
	tex, err := NewTextureRGBA(ctx, pixels, int32(bounds.Dx()), int32(bounds.Dy()), opts)
	if err != nil {
		return Texture{}, err
	}

	tex.Path = file
	return tex, nil
}

// LoadTexturePNGOr loads the png, falling back to a solid color texture if that fails
func LoadTexturePNGOr(ctx *gpu.Context, file string, opts *TextureLoadOptions, fallback [4]uint8) (Texture, error) {

	tex, err := LoadTexturePNG(ctx, file, opts)
	if err == nil {
		return tex, nil
	}

	logging.WarnLog.Printf("Failed to load texture '%s', using solid color %v instead. Err: %s\n", file, fallback, err)
	return NewSolidTexture(ctx, fallback[0], fallback[1], fallback[2], fallback[3], opts)
}

// flipRows returns the pixels with the bottom row first, which is the order textures are uploaded in
func flipRows(img *image.NRGBA) []byte {

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	rowLen := w * 4

	out := make([]byte, rowLen*h)
	for y := 0; y < h; y++ {
		srcStart := y * img.Stride
		dstStart := (h - 1 - y) * rowLen
		copy(out[dstStart:dstStart+rowLen], img.Pix[srcStart:srcStart+rowLen])
	}

	return out
}
