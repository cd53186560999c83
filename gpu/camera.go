package gpu

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// OrbitCamera circles the origin at a fixed distance and height.
type OrbitCamera struct {
	Distance float32
	Height   float32
	Speed    float32 // radians per second
	FovY     float32 // degrees

	angle float32
}

func DefaultOrbitCamera(boundSize float32) OrbitCamera {
	return OrbitCamera{
		Distance: boundSize * 1.25,
		Height:   boundSize * 0.5,
		Speed:    0.1,
		FovY:     60,
	}
}

func (c *OrbitCamera) Advance(dt float32) {
	c.angle = float32(math.Mod(float64(c.angle+c.Speed*dt), 2*math.Pi))
}

func (c *OrbitCamera) Eye() mgl32.Vec3 {
	sin, cos := math.Sincos(float64(c.angle))
	return mgl32.Vec3{float32(sin) * c.Distance, c.Height, float32(cos) * c.Distance}
}

// ViewProjection looks at the origin from Eye.
func (c *OrbitCamera) ViewProjection(aspect float32) mgl32.Mat4 {
	far := c.Distance * 4
	if far < 100 {
		far = 100
	}
	view := mgl32.LookAtV(c.Eye(), mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, 0.1, far)
	return proj.Mul4(view)
}
