// Package res embeds the shader programs of the renderers, so the binary runs from any working directory
package res

import _ "embed"

// Writes world position, normal and albedo+specular to the three G-buffer attachments
//
//go:embed shaders/gbuffer.glsl
var GBufferShader []byte

// Full screen pass resolving the G-buffer against the light array
//
//go:embed shaders/lighting.glsl
var LightingShader []byte

// Single pass forward lighting used by the immediate renderer
//
//go:embed shaders/forward.glsl
var ForwardShader []byte
