package renderer

import (
	"context"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showroom/core"
	"showroom/scene"
)

type fakeBackend struct {
	width, height int
	frames        []*Frame
	err           error
}

func (b *fakeBackend) SetViewport(w, h int) { b.width, b.height = w, h }
func (b *fakeBackend) Draw(f *Frame) error {
	b.frames = append(b.frames, f)
	return b.err
}
func (b *fakeBackend) Destroy() {}

func box(name string, pos mgl32.Vec3, mat *scene.Material) *scene.Node {
	n := scene.NewNode(name)
	n.Mesh = scene.CreateBox(1, 1, 1)
	n.Mesh.Material = mat
	n.SetPosition(pos)
	n.CastShadow = true
	return n
}

func glass(name string) *scene.Material {
	m := scene.NewMaterial(name, core.ColorWhite, 0.1, 0)
	m.Opacity = 0.4
	m.Transparent = true
	return m
}

func testScene() (*scene.Scene, *scene.Camera) {
	s := scene.NewScene()
	s.Background = core.ColorHex(0xa0a0a0)
	s.AddDirectional(&scene.DirectionalLight{
		Position: mgl32.Vec3{10, 20, 10}, Intensity: 1.5, CastShadow: true,
	})
	cam := scene.NewCamera(45, 1, 0.1, 100)
	cam.SetPosition(mgl32.Vec3{0, 0, 10})
	cam.LookAt(mgl32.Vec3{})
	return s, cam
}

func TestBuildFrameSortsAndSplits(t *testing.T) {
	s, cam := testScene()
	paint := scene.NewMaterial("paint", core.ColorRed, 0.5, 0.5)
	s.AddNode(box("near-glass", mgl32.Vec3{0, 0, 4}, glass("g1")))
	s.AddNode(box("far-glass", mgl32.Vec3{0, 0, -4}, glass("g2")))
	s.AddNode(box("mid-glass", mgl32.Vec3{0, 0, 0}, glass("g3")))
	s.AddNode(box("body", mgl32.Vec3{}, paint))
	hidden := box("hidden", mgl32.Vec3{}, paint)
	hidden.Visible = false
	s.AddNode(hidden)
	s.AddNode(box("behind", mgl32.Vec3{0, 0, 30}, paint))

	f := BuildFrame(s, cam, FrameOptions{FrustumCulling: true})

	require.Len(t, f.Opaque, 1)
	assert.Equal(t, "body", f.Opaque[0].Node.Name)
	require.Len(t, f.Transparent, 3)
	assert.Equal(t, "far-glass", f.Transparent[0].Node.Name)
	assert.Equal(t, "mid-glass", f.Transparent[1].Node.Name)
	assert.Equal(t, "near-glass", f.Transparent[2].Node.Name)
	assert.Equal(t, 1, f.Culled)
	assert.Equal(t, float32(1), f.Exposure)

	require.NotNil(t, f.Shadow)
	assert.Equal(t, 2048, f.Shadow.MapSize)
	// Off-screen opaque meshes still cast shadows; hidden and transparent ones do not.
	names := []string{}
	for _, c := range f.Shadow.Casters {
		names = append(names, c.Node.Name)
	}
	assert.ElementsMatch(t, []string{"body", "behind"}, names)
}

func TestBuildFrameWithoutShadowLight(t *testing.T) {
	s, cam := testScene()
	s.Directionals[0].CastShadow = false
	f := BuildFrame(s, cam, FrameOptions{Exposure: 1.2})
	assert.Nil(t, f.Shadow)
	assert.Equal(t, float32(1.2), f.Exposure)
}

func TestLightSpaceMatrixMapsTargetToCentre(t *testing.T) {
	l := &scene.DirectionalLight{Position: mgl32.Vec3{10, 20, 10}}
	m := LightSpaceMatrix(l, 15)
	c := mgl32.TransformCoordinate(mgl32.Vec3{}, m)
	assert.InDelta(t, 0, c[0], 1e-4)
	assert.InDelta(t, 0, c[1], 1e-4)
	assert.True(t, c[2] > -1 && c[2] < 1, "target must lie inside the depth range, got %v", c[2])

	// A point 14 units off-centre on the ground is still in the map.
	p := mgl32.TransformCoordinate(mgl32.Vec3{10, 0, -10}, m)
	for i := 0; i < 3; i++ {
		assert.True(t, p[i] >= -1 && p[i] <= 1, "axis %d: %v", i, p[i])
	}
}

func TestEngineResizeAndStats(t *testing.T) {
	s, cam := testScene()
	s.AddNode(box("body", mgl32.Vec3{}, scene.DefaultMaterial()))
	b := &fakeBackend{}
	e := NewEngine(b, s, cam, 1280, 720)
	assert.Equal(t, 1280, b.width)

	e.Resize(800, 600)
	w, h := e.Size()
	assert.Equal(t, [2]int{800, 600}, [2]int{w, h})
	assert.Equal(t, [2]int{800, 600}, [2]int{b.width, b.height})

	e.Resize(0, 0)
	w, h = e.Size()
	assert.Equal(t, [2]int{800, 600}, [2]int{w, h})

	require.NoError(t, e.Render())
	assert.Len(t, b.frames, 1)
	st := e.Stats()
	assert.Equal(t, 1, st.Objects)
	assert.Equal(t, 24, st.Vertices)
	assert.Equal(t, 12, st.Triangles)

	b.err = errors.New("context lost")
	assert.ErrorIs(t, e.Render(), b.err)
}

type fakeHost struct {
	closeAfter int
	polls      int
	swaps      int
}

func (h *fakeHost) ShouldClose() bool { return h.swaps >= h.closeAfter }
func (h *fakeHost) PollEvents()       { h.polls++ }
func (h *fakeHost) SwapBuffers()      { h.swaps++ }

func TestLoopRunsUntilClose(t *testing.T) {
	h := &fakeHost{closeAfter: 3}
	steps := 0
	l := NewLoop(h, func(dt float32) error {
		assert.GreaterOrEqual(t, dt, float32(0))
		steps++
		return nil
	})
	assert.False(t, l.Started())
	require.NoError(t, l.Run(context.Background()))
	assert.True(t, l.Started())
	assert.Equal(t, 3, steps)
	assert.Equal(t, 3, h.polls)
	assert.Equal(t, uint64(3), l.Frames())

	assert.ErrorIs(t, l.Run(context.Background()), ErrLoopStarted)
	assert.Equal(t, 3, steps)
}

func TestLoopStopsOnStepErrorAndContext(t *testing.T) {
	boom := errors.New("boom")
	l := NewLoop(&fakeHost{closeAfter: 10}, func(float32) error { return boom })
	assert.ErrorIs(t, l.Run(context.Background()), boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l = NewLoop(&fakeHost{closeAfter: 10}, func(float32) error { return nil })
	assert.ErrorIs(t, l.Run(ctx), context.Canceled)
}
