package camera

import (
	"math"

	"github.com/bloeys/gglm/gglm"
)

// Pitch is clamped to this many radians up or down, to keep away from the world up axis
const MaxPitch = 1.5

type Camera struct {
	Pos     gglm.Vec3
	Forward gglm.Vec3
	WorldUp gglm.Vec3

	NearClip    float32
	FarClip     float32
	Fov         float32
	AspectRatio float32

	// Radians, as set by UpdateRotation and MoveLook
	Pitch float32
	Yaw   float32

	ProjMat gglm.Mat4
	ViewMat gglm.Mat4
}

// Update recalculates the projection and view matrices
func (c *Camera) Update() {

	proj := gglm.Perspective(c.Fov, c.AspectRatio, c.NearClip, c.FarClip)
	c.ProjMat = *proj.Clone()

	target := c.Pos.Clone().Add(&c.Forward)
	c.ViewMat = gglm.LookAtRH(&c.Pos, target, &c.WorldUp).Mat4
}

// UpdateRotation points the camera along the given pitch and yaw (in radians) and updates it
func (c *Camera) UpdateRotation(pitch, yaw float32) {

	c.Pitch = clamp(pitch, -MaxPitch, MaxPitch)
	c.Yaw = yaw

	cosPitch := cos32(c.Pitch)
	c.Forward = gglm.NewVec3(
		cos32(c.Yaw)*cosPitch,
		sin32(c.Pitch),
		sin32(c.Yaw)*cosPitch,
	)
	c.Forward.Normalize()

	c.Update()
}

// Orbit places the camera on a circle of the given radius around the origin on the XZ plane,
// looking at the origin. Angle zero is at (0,0,-radius) and positive angles turn counter clockwise
// when seen from above.
func (c *Camera) Orbit(radius, angle float32) {

	c.Pos = gglm.NewVec3(radius*sin32(angle), 0, -radius*cos32(angle))
	c.Forward = gglm.NewVec3(-c.Pos.X(), -c.Pos.Y(), -c.Pos.Z())
	c.Forward.Normalize()

	c.Update()
}

// Right returns the normalized right vector of the camera
func (c *Camera) Right() gglm.Vec3 {
	right := gglm.Cross(&c.Forward, &c.WorldUp)
	right.Normalize()
	return gglm.NewVec3(right.X(), right.Y(), right.Z())
}

// Move translates the camera along its right, world up and forward axes and updates it
func (c *Camera) Move(right, up, forward float32) {

	r := c.Right()
	c.Pos.Add(r.Scale(right))
	c.Pos.Add(c.WorldUp.Clone().Scale(up))
	c.Pos.Add(c.Forward.Clone().Scale(forward))

	c.Update()
}

// MoveLook turns the camera by yaw and pitch deltas and rolls its up vector around the forward axis.
// All values are in radians.
func (c *Camera) MoveLook(dYaw, dPitch, dRoll float32) {

	if dRoll != 0 {
		c.WorldUp = rotateAround(c.WorldUp, c.Forward, dRoll)
	}

	c.UpdateRotation(c.Pitch+dPitch, c.Yaw+dYaw)
}

// rotateAround rotates v around the normalized axis k by angle radians (Rodrigues' formula)
func rotateAround(v, k gglm.Vec3, angle float32) gglm.Vec3 {

	cosA, sinA := cos32(angle), sin32(angle)

	kDotV := k.X()*v.X() + k.Y()*v.Y() + k.Z()*v.Z()
	kCrossV := gglm.Cross(&k, &v)

	out := gglm.NewVec3(
		v.X()*cosA+kCrossV.X()*sinA+k.X()*kDotV*(1-cosA),
		v.Y()*cosA+kCrossV.Y()*sinA+k.Y()*kDotV*(1-cosA),
		v.Z()*cosA+kCrossV.Z()*sinA+k.Z()*kDotV*(1-cosA),
	)
	out.Normalize()
	return out
}

func NewPerspective(pos, forward, worldUp *gglm.Vec3, nearClip, farClip, fovRadians, aspectRatio float32) *Camera {

	cam := &Camera{
		Pos:     *pos,
		Forward: *forward,
		WorldUp: *worldUp,

		NearClip:    nearClip,
		FarClip:     farClip,
		Fov:         fovRadians,
		AspectRatio: aspectRatio,
	}

	cam.Forward.Normalize()
	cam.Pitch = float32(math.Asin(float64(cam.Forward.Y())))
	cam.Yaw = float32(math.Atan2(float64(cam.Forward.Z()), float64(cam.Forward.X())))

	cam.Update()
	return cam
}

func sin32(x float32) float32 {
	return float32(math.Sin(float64(x)))
}

func cos32(x float32) float32 {
	return float32(math.Cos(float64(x)))
}

func clamp(x, lo, hi float32) float32 {
	return max(lo, min(x, hi))
}
