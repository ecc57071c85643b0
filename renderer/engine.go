package renderer

import (
	"fmt"

	"showroom/scene"
)

// Backend draws prepared frames on a GPU surface.
type Backend interface {
	SetViewport(width, height int)
	Draw(f *Frame) error
	Destroy()
}

// Stats are the counters of the most recent Render call.
type Stats struct {
	Objects     int
	Transparent int
	Vertices    int
	Triangles   int
	Culled      int
}

// Engine renders one scene through one camera.
type Engine struct {
	backend Backend
	Scene   *scene.Scene
	Camera  *scene.Camera

	Exposure       float32
	ShadowExtent   float32
	FrustumCulling bool

	width, height int
	stats         Stats
}

func NewEngine(b Backend, s *scene.Scene, cam *scene.Camera, width, height int) *Engine {
	e := &Engine{
		backend:        b,
		Scene:          s,
		Camera:         cam,
		Exposure:       1,
		FrustumCulling: true,
	}
	e.Resize(width, height)
	return e
}

// Resize sets the output surface size. Non-positive sizes are ignored.
func (e *Engine) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.width, e.height = width, height
	e.backend.SetViewport(width, height)
}

// Size is the current output surface size in pixels.
func (e *Engine) Size() (width, height int) { return e.width, e.height }

// Render draws the scene once.
func (e *Engine) Render() error {
	if e.Scene == nil || e.Camera == nil {
		return fmt.Errorf("no scene or camera")
	}
	f := BuildFrame(e.Scene, e.Camera, FrameOptions{
		Exposure:       e.Exposure,
		ShadowExtent:   e.ShadowExtent,
		FrustumCulling: e.FrustumCulling,
	})

	var st Stats
	for _, list := range [][]DrawItem{f.Opaque, f.Transparent} {
		for _, it := range list {
			st.Objects++
			st.Vertices += len(it.Mesh.Vertices)
			st.Triangles += it.Mesh.TriangleCount()
		}
	}
	st.Transparent = len(f.Transparent)
	st.Culled = f.Culled
	e.stats = st

	if err := e.backend.Draw(f); err != nil {
		return fmt.Errorf("draw frame: %w", err)
	}
	return nil
}

// Stats returns the counters of the most recent Render call.
func (e *Engine) Stats() Stats { return e.stats }

func (e *Engine) Destroy() { e.backend.Destroy() }
