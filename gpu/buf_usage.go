package gpu

type BufUsage int

// Full docs for buffer usage can be found here: https://registry.khronos.org/OpenGL-Refpages/gl4/html/glBufferData.xhtml
const (
	BufUsage_Unknown BufUsage = iota

	//Buffer is set only once and used many times
	BufUsage_Static_Draw
	//Buffer is changed a lot and used many times
	BufUsage_Dynamic_Draw
	//Buffer is set only once and used by the GPU at most a few times
	BufUsage_Stream_Draw

	BufUsage_Static_Read
	BufUsage_Dynamic_Read
	BufUsage_Stream_Read

	BufUsage_Static_Copy
	BufUsage_Dynamic_Copy
	BufUsage_Stream_Copy
)

func (b BufUsage) IsValid() bool {
	return b > BufUsage_Unknown && b <= BufUsage_Stream_Copy
}

func (b BufUsage) String() string {

	switch b {
	case BufUsage_Static_Draw:
		return "StaticDraw"
	case BufUsage_Dynamic_Draw:
		return "DynamicDraw"
	case BufUsage_Stream_Draw:
		return "StreamDraw"

	case BufUsage_Static_Read:
		return "StaticRead"
	case BufUsage_Dynamic_Read:
		return "DynamicRead"
	case BufUsage_Stream_Read:
		return "StreamRead"

	case BufUsage_Static_Copy:
		return "StaticCopy"
	case BufUsage_Dynamic_Copy:
		return "DynamicCopy"
	case BufUsage_Stream_Copy:
		return "StreamCopy"

	default:
		return "Unknown"
	}
}
