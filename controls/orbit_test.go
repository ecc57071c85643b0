package controls

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"showroom/scene"
)

func newTestOrbit(damping float32) *Orbit {
	cam := scene.NewCamera(45, 4.0/3.0, 0.1, 100)
	cam.SetPosition(mgl32.Vec3{0, 0, 10})
	o := NewOrbit(cam, mgl32.Vec3{})
	o.Damping = damping
	return o
}

func near(a, b mgl32.Vec3) bool { return a.ApproxEqualThreshold(b, 1e-3) }

func TestUpdateWithoutInputIsStable(t *testing.T) {
	o := newTestOrbit(0.05)
	o.Camera.SetPosition(mgl32.Vec3{8, 5, 10})
	for i := 0; i < 10; i++ {
		assert.False(t, o.Update())
	}
	assert.True(t, near(o.Camera.Position, mgl32.Vec3{8, 5, 10}), "got %v", o.Camera.Position)
}

func TestRotateWithoutDampingIsImmediate(t *testing.T) {
	o := newTestOrbit(0)
	o.RotateLeft(math.Pi / 2)
	assert.True(t, o.Update())
	assert.True(t, near(o.Camera.Position, mgl32.Vec3{-10, 0, 0}), "got %v", o.Camera.Position)
	assert.Equal(t, mgl32.Vec3{}, o.Camera.Target)
}

func TestDampingEasesToFullRotation(t *testing.T) {
	o := newTestOrbit(0.05)
	o.RotateLeft(math.Pi / 2)

	o.Update()
	first := o.Camera.Position
	assert.False(t, near(first, mgl32.Vec3{-10, 0, 0}), "one step must not reach the goal")
	assert.Less(t, first[0], float32(0))

	for i := 0; i < 600; i++ {
		o.Update()
	}
	assert.True(t, near(o.Camera.Position, mgl32.Vec3{-10, 0, 0}), "got %v", o.Camera.Position)
}

func TestDistanceLimits(t *testing.T) {
	o := newTestOrbit(0)
	o.MinDistance, o.MaxDistance = 5, 20

	for i := 0; i < 100; i++ {
		o.Dolly(1)
	}
	o.Update()
	assert.InDelta(t, 5, o.Camera.Position.Sub(o.Target).Len(), 1e-4)

	for i := 0; i < 100; i++ {
		o.Dolly(-1)
	}
	o.Update()
	assert.InDelta(t, 20, o.Camera.Position.Sub(o.Target).Len(), 1e-3)
}

func TestPolarLimitKeepsCameraAboveGround(t *testing.T) {
	o := newTestOrbit(0)
	o.MaxPolarAngle = math.Pi/2 - 0.05
	o.RotateUp(-2)
	o.Update()
	assert.Greater(t, o.Camera.Position[1], float32(0))
	polar := math.Acos(float64(o.Camera.Position[1] / o.Camera.Position.Len()))
	assert.InDelta(t, math.Pi/2-0.05, polar, 1e-4)
}

func TestPanMovesTargetAndCamera(t *testing.T) {
	o := newTestOrbit(0)
	o.SetViewportHeight(600)
	before := o.Camera.Position.Sub(o.Target)

	o.Pan(100, 0)
	o.Update()

	assert.Less(t, o.Target[0], float32(0), "dragging right moves the view left")
	assert.InDelta(t, 0, o.Target[1], 1e-5)
	assert.True(t, near(o.Camera.Position.Sub(o.Target), before), "pan keeps the orbit offset")
}

func TestDragRotates(t *testing.T) {
	o := newTestOrbit(0)
	o.SetViewportHeight(600)

	o.DragTo(10, 10) // not dragging: nothing queued
	o.Update()
	assert.True(t, near(o.Camera.Position, mgl32.Vec3{0, 0, 10}))

	o.BeginDrag(DragRotate, 100, 100)
	o.DragTo(250, 100)
	o.EndDrag()
	assert.Equal(t, DragNone, o.Dragging())
	o.Update()

	// 150px of a 600px viewport is a quarter turn.
	assert.True(t, near(o.Camera.Position, mgl32.Vec3{-10, 0, 0}), "got %v", o.Camera.Position)
}
