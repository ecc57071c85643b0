// Package controls moves a camera around a target point in response to
// pointer input, with damped motion.
package controls

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"showroom/scene"
)

const epsilon = 1e-6

// DragMode selects what a pointer drag does.
type DragMode int

const (
	DragNone DragMode = iota
	DragRotate
	DragPan
)

// Orbit keeps a camera on a sphere around Target. Input accumulates into
// pending deltas; each Update moves the camera a Damping fraction of the
// way, so motion eases out over several frames. With Damping 0 every input
// is applied in full on the next Update.
type Orbit struct {
	Camera *scene.Camera
	Target mgl32.Vec3

	Damping       float32
	MinDistance   float32
	MaxDistance   float32
	MinPolarAngle float32 // radians from +Y
	MaxPolarAngle float32

	RotateSpeed float32
	PanSpeed    float32
	ZoomSpeed   float32

	deltaAzimuth float32
	deltaPolar   float32
	scale        float32
	panOffset    mgl32.Vec3

	viewportHeight float32
	drag           DragMode
	lastX, lastY   float64
}

// NewOrbit attaches a controller to cam orbiting target. The camera keeps
// its current position.
func NewOrbit(cam *scene.Camera, target mgl32.Vec3) *Orbit {
	o := &Orbit{
		Camera:         cam,
		Target:         target,
		Damping:        0.05,
		MinDistance:    0,
		MaxDistance:    float32(math.Inf(1)),
		MinPolarAngle:  0,
		MaxPolarAngle:  math.Pi,
		RotateSpeed:    1,
		PanSpeed:       1,
		ZoomSpeed:      1,
		scale:          1,
		viewportHeight: 720,
	}
	cam.LookAt(target)
	return o
}

// SetViewportHeight sets the pixel height used to convert drags to angles.
func (o *Orbit) SetViewportHeight(h int) {
	if h > 0 {
		o.viewportHeight = float32(h)
	}
}

// RotateLeft queues a rotation about the vertical axis through Target.
func (o *Orbit) RotateLeft(angle float32) { o.deltaAzimuth -= angle }

// RotateUp queues a change of the polar angle.
func (o *Orbit) RotateUp(angle float32) { o.deltaPolar -= angle }

// Dolly moves toward (steps > 0) or away from the target, one scroll notch
// per step.
func (o *Orbit) Dolly(steps float32) {
	o.scale *= float32(math.Pow(0.95, float64(o.ZoomSpeed*steps)))
}

// Pan queues a translation of camera and target by a screen-space pixel
// offset. Moving right drags the scene right.
func (o *Orbit) Pan(dx, dy float32) {
	offset := o.Camera.Position.Sub(o.Target)
	// Half the visible height at the target distance, in world units.
	half := offset.Len() * float32(math.Tan(float64(mgl32.DegToRad(o.Camera.FOV)/2)))
	k := 2 * half / o.viewportHeight * o.PanSpeed

	forward := o.Camera.Forward()
	right := forward.Cross(o.Camera.Up)
	if right.Len() < epsilon {
		right = mgl32.Vec3{1, 0, 0}
	}
	right = right.Normalize()
	up := right.Cross(forward).Normalize()

	o.panOffset = o.panOffset.Add(right.Mul(-dx * k)).Add(up.Mul(dy * k))
}

// BeginDrag starts a pointer drag at (x, y) in window pixels.
func (o *Orbit) BeginDrag(mode DragMode, x, y float64) {
	o.drag = mode
	o.lastX, o.lastY = x, y
}

// DragTo feeds a pointer move. Outside a drag it only records the position.
func (o *Orbit) DragTo(x, y float64) {
	dx, dy := float32(x-o.lastX), float32(y-o.lastY)
	o.lastX, o.lastY = x, y
	switch o.drag {
	case DragRotate:
		o.RotateLeft(2 * math.Pi * dx / o.viewportHeight * o.RotateSpeed)
		o.RotateUp(2 * math.Pi * dy / o.viewportHeight * o.RotateSpeed)
	case DragPan:
		o.Pan(dx, dy)
	}
}

func (o *Orbit) EndDrag() { o.drag = DragNone }

func (o *Orbit) Dragging() DragMode { return o.drag }

// Update advances the camera by one damping step and reports whether it
// moved.
func (o *Orbit) Update() bool {
	cam := o.Camera
	offset := cam.Position.Sub(o.Target)

	radius := offset.Len()
	var azimuth, polar float32
	if radius > epsilon {
		azimuth = float32(math.Atan2(float64(offset[0]), float64(offset[2])))
		polar = float32(math.Acos(float64(mgl32.Clamp(offset[1]/radius, -1, 1))))
	}

	f := o.Damping
	if f <= 0 || f > 1 {
		f = 1
	}
	azimuth += o.deltaAzimuth * f
	polar += o.deltaPolar * f
	polar = mgl32.Clamp(polar, o.MinPolarAngle, o.MaxPolarAngle)
	polar = mgl32.Clamp(polar, epsilon, math.Pi-epsilon)

	radius = mgl32.Clamp(radius*o.scale, o.MinDistance, o.MaxDistance)
	target := o.Target.Add(o.panOffset.Mul(f))

	sinPolar := float32(math.Sin(float64(polar)))
	newOffset := mgl32.Vec3{
		radius * sinPolar * float32(math.Sin(float64(azimuth))),
		radius * float32(math.Cos(float64(polar))),
		radius * sinPolar * float32(math.Cos(float64(azimuth))),
	}
	pos := target.Add(newOffset)

	moved := !pos.ApproxEqualThreshold(cam.Position, 1e-4) || !target.ApproxEqualThreshold(o.Target, 1e-4)
	o.Target = target
	cam.SetPosition(pos)
	cam.LookAt(target)

	if f < 1 {
		o.deltaAzimuth *= 1 - f
		o.deltaPolar *= 1 - f
		o.panOffset = o.panOffset.Mul(1 - f)
	} else {
		o.deltaAzimuth, o.deltaPolar = 0, 0
		o.panOffset = mgl32.Vec3{}
	}
	o.scale = 1
	return moved
}
