package interaction

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showroom/assembly"
	"showroom/asset"
	"showroom/controls"
	"showroom/core"
	"showroom/internal/gltftest"
	"showroom/profile"
	"showroom/scene"
)

type fakeViewport struct{ w, h int }

func (v *fakeViewport) Resize(w, h int) { v.w, v.h = w, h }

type fakeWindow struct {
	width  int
	height int
	resize func(int, int)
	size   func(int, int)
	cursor func(float64, float64)
	button func(int, bool)
	scroll func(float64, float64)
	key    func(int, bool)
	closed bool
}

func (w *fakeWindow) SetFramebufferSizeCallback(cb func(int, int)) { w.resize = cb }
func (w *fakeWindow) SetSizeCallback(cb func(int, int)) { w.size = cb }
func (w *fakeWindow) GetSize() (int, int) { return w.width, w.height }
func (w *fakeWindow) SetCursorPosCallback(cb func(float64, float64)) { w.cursor = cb }
func (w *fakeWindow) SetMouseButtonCallback(cb func(int, bool)) { w.button = cb }
func (w *fakeWindow) SetScrollCallback(cb func(float64, float64)) { w.scroll = cb }
func (w *fakeWindow) SetKeyCallback(cb func(int, bool)) { w.key = cb }
func (w *fakeWindow) SetShouldClose(v bool) { w.closed = v }

func newBridge() (*Bridge, *fakeViewport) {
	s := scene.NewScene()
	cam := scene.NewCamera(45, 1280.0/720.0, 0.1, 100)
	cam.SetPosition(mgl32.Vec3{8, 5, 10})
	cam.LookAt(mgl32.Vec3{})
	orbit := controls.NewOrbit(cam, mgl32.Vec3{})
	orbit.Damping = 0
	vp := &fakeViewport{1280, 720}
	return NewBridge(s, cam, orbit, vp, nil), vp
}

func attachCar(t *testing.T, b *Bridge) {
	t.Helper()
	path := gltftest.WriteGLB(t, t.TempDir(), "car.glb",
		gltftest.Cube("Body", "CarPaint", 1),
		gltftest.Cube("Hood", "carpaint_hood", 0.5),
		gltftest.Cube("Windshield", "Glass_Front", 0.5),
		gltftest.Cube("Tyre", "Rubber", 0.3),
	)
	root, err := scene.DecodeGLTF(path)
	require.NoError(t, err)
	_, err = assembly.New(b.Scene).Attach(root, &asset.Descriptor{Name: "car", Source: path})
	require.NoError(t, err)
}

func TestOnResizeKeepsPose(t *testing.T) {
	b, vp := newBridge()
	pos, target, up := b.Camera.Position, b.Camera.Target, b.Camera.Up
	view := b.Camera.GetViewMatrix()

	b.OnResize(800, 600)

	assert.InDelta(t, 800.0/600.0, b.Camera.AspectRatio, 1e-6)
	assert.Equal(t, 800, vp.w)
	assert.Equal(t, 600, vp.h)
	assert.Equal(t, pos, b.Camera.Position)
	assert.Equal(t, target, b.Camera.Target)
	assert.Equal(t, up, b.Camera.Up)
	assert.Equal(t, view, b.Camera.GetViewMatrix())
	assert.Equal(t, mgl32.Perspective(mgl32.DegToRad(45), 800.0/600.0, 0.1, 100), b.Camera.GetProjectionMatrix())
}

func TestOnResizeIgnoresMinimised(t *testing.T) {
	b, vp := newBridge()
	b.OnResize(0, 0)
	b.OnResize(800, -1)
	assert.InDelta(t, 1280.0/720.0, b.Camera.AspectRatio, 1e-6)
	assert.Equal(t, 1280, vp.w)
}

func TestOnColorSelectBeforeAndAfterAttach(t *testing.T) {
	b, _ := newBridge()

	n, err := b.OnColorSelect("carpaint", "#ff0000")
	require.NoError(t, err)
	assert.Zero(t, n, "nothing attached yet")

	attachCar(t, b)
	n, err = b.OnColorSelect("carpaint", "#ff0000")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, node := range b.Scene.Root.MeshesByMaterial("") {
		m := node.Mesh.Material
		if node.Name == "Body" || node.Name == "Hood" {
			assert.Equal(t, core.ColorRed, m.BaseColor, node.Name)
		} else {
			assert.NotEqual(t, core.ColorRed, m.BaseColor, node.Name)
		}
	}
}

func TestOnColorSelectErrors(t *testing.T) {
	b, _ := newBridge()
	attachCar(t, b)

	_, err := b.OnColorSelect("", "#ff0000")
	assert.ErrorIs(t, err, ErrNoTarget)

	_, err = b.OnColorSelect("carpaint", "#ff00")
	assert.Error(t, err)
	body := b.Scene.Root.Find("Body")
	require.NotNil(t, body)
	assert.NotEqual(t, core.ColorRed, body.Mesh.Material.BaseColor, "invalid colour leaves materials alone")

	n, err := b.OnColorSelect("CARPAINT", "red")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestBindRoutesInput(t *testing.T) {
	b, vp := newBridge()
	attachCar(t, b)
	b.Palette = []profile.Swatch{
		{Label: "Red", Color: core.ColorRed, Target: "carpaint"},
		{Label: "Black", Color: core.ColorBlack, Target: "carpaint"},
	}
	w := &fakeWindow{width: 640, height: 480}
	b.Bind(w)

	w.resize(640, 480)
	assert.Equal(t, 640, vp.w)

	w.cursor(100, 100)
	w.button(core.MouseLeft, true)
	assert.Equal(t, controls.DragRotate, b.Orbit.Dragging())
	w.cursor(220, 100)
	w.button(core.MouseLeft, false)
	assert.Equal(t, controls.DragNone, b.Orbit.Dragging())

	before := b.Camera.Position
	assert.True(t, b.Orbit.Update())
	assert.NotEqual(t, before, b.Camera.Position)

	w.key(core.Key1+1, true)
	assert.Equal(t, core.ColorBlack, b.Scene.Root.Find("Body").Mesh.Material.BaseColor)
	w.key(core.Key9, true) // beyond the palette
	assert.Equal(t, core.ColorBlack, b.Scene.Root.Find("Body").Mesh.Material.BaseColor)

	w.key(core.KeyEscape, false)
	assert.False(t, w.closed)
	w.key(core.KeyEscape, true)
	assert.True(t, w.closed)
}

func TestOnSwatchRange(t *testing.T) {
	b, _ := newBridge()
	_, err := b.OnSwatch(0)
	assert.Error(t, err)
}

func TestDragScalesWithWindowHeight(t *testing.T) {
	b, _ := newBridge()
	b.Camera.SetPosition(mgl32.Vec3{0, 0, 10})
	b.Camera.LookAt(mgl32.Vec3{})

	// High-DPI: framebuffer pixels are twice the window coordinates.
	w := &fakeWindow{width: 640, height: 360}
	b.Bind(w)
	w.resize(1280, 720)

	// A quarter of the window height is a quarter turn.
	w.cursor(100, 100)
	w.button(core.MouseLeft, true)
	w.cursor(190, 100)
	w.button(core.MouseLeft, false)
	b.Orbit.Update()
	assert.True(t, b.Camera.Position.ApproxEqualThreshold(mgl32.Vec3{-10, 0, 0}, 1e-3), "got %v", b.Camera.Position)

	w.size(1280, 720)
	w.size(0, 0)
	w.cursor(100, 100)
	w.button(core.MouseLeft, true)
	w.cursor(280, 100)
	w.button(core.MouseLeft, false)
	b.Orbit.Update()
	assert.True(t, b.Camera.Position.ApproxEqualThreshold(mgl32.Vec3{0, 0, -10}, 1e-3), "got %v", b.Camera.Position)
}
