// Package session ties a scene profile to a window: it builds the static
// scene, loads and attaches models, and runs the frame loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"showroom/assembly"
	"showroom/asset"
	"showroom/controls"
	"showroom/interaction"
	"showroom/profile"
	"showroom/renderer"
	"showroom/scene"
)

// ErrNoSurface is returned by New when there is no window to render into.
var ErrNoSurface = errors.New("session: no host surface")

const (
	// pumpInterval paces event polling while a gated session waits for models.
	pumpInterval = 16 * time.Millisecond
	statsEvery   = 5.0 // seconds
)

// State is the lifecycle stage of a Session.
type State int32

const (
	Uninitialized State = iota
	SceneBuilt
	AssetsLoading
	Ready
	Running
)

func (s State) String() string {
	switch s {
	case SceneBuilt:
		return "scene-built"
	case AssetsLoading:
		return "assets-loading"
	case Ready:
		return "ready"
	case Running:
		return "running"
	default:
		return "uninitialized"
	}
}

// Host is the window a session renders into.
type Host interface {
	renderer.Host
	GetFramebufferSize() (width, height int)
	SetTitle(title string)
}

// Deps are the collaborators a Session is built from.
type Deps struct {
	Host    Host
	Backend renderer.Backend

	// Decode turns a model file into a node tree; defaults to scene.DecodeGLTF.
	Decode             asset.DecodeFunc
	Logger             *slog.Logger
	AssetRoot          string
	MaxConcurrentLoads int
}

// Session owns everything that lives for one run of a profile. Apart from
// State, its methods must be called from the goroutine that owns the
// window and GL context.
type Session struct {
	id    string
	desc  *profile.Description
	host  Host
	base  *slog.Logger
	log   *slog.Logger
	state atomic.Int32

	backend   renderer.Backend
	loader    *asset.Loader
	scene     *scene.Scene
	camera    *scene.Camera
	orbit     *controls.Orbit
	engine    *renderer.Engine
	bridge    *interaction.Bridge
	assembler *assembly.Assembler
	loop      *renderer.Loop

	results  <-chan asset.Result
	settled  int
	failed   int
	elapsed  float64
	lastLog  float64
	liftBase map[string]float32
	title    string
}

func New(desc *profile.Description, deps Deps) (*Session, error) {
	if deps.Host == nil {
		return nil, ErrNoSurface
	}
	if desc == nil {
		return nil, errors.New("session: no scene description")
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if deps.Decode == nil {
		deps.Decode = scene.DecodeGLTF
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	id := uuid.NewString()
	log := deps.Logger.With("session", id, "profile", desc.Name)

	opts := []asset.LoaderOption{asset.WithLogger(log), asset.WithAssetRoot(deps.AssetRoot)}
	if deps.MaxConcurrentLoads > 0 {
		opts = append(opts, asset.WithMaxConcurrent(deps.MaxConcurrentLoads))
	}

	s := &Session{
		id:       id,
		desc:     desc,
		host:     deps.Host,
		backend:  deps.Backend,
		base:     log,
		log:      log.With("component", "session"),
		loader:   asset.NewLoader(deps.Decode, opts...),
		liftBase: make(map[string]float32),
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) setState(st State) {
	prev := State(s.state.Swap(int32(st)))
	s.log.Info("state", "from", prev, "to", st)
}

func (s *Session) Scene() *scene.Scene { return s.scene }
func (s *Session) Camera() *scene.Camera { return s.camera }
func (s *Session) Orbit() *controls.Orbit { return s.orbit }
func (s *Session) Engine() *renderer.Engine { return s.engine }
func (s *Session) Bridge() *interaction.Bridge { return s.bridge }
func (s *Session) Loader() *asset.Loader { return s.loader }
func (s *Session) Assembler() *assembly.Assembler { return s.assembler }
func (s *Session) Title() string { return s.title }

// Frames is the number of frames presented so far.
func (s *Session) Frames() uint64 {
	if s.loop == nil {
		return 0
	}
	return s.loop.Frames()
}

// Build creates the static scene: environment, lights, ground, backdrop,
// camera and controls. Models are added later by Run.
func (s *Session) Build() error {
	if st := s.State(); st != Uninitialized {
		return fmt.Errorf("session: build in state %s", st)
	}
	if s.backend == nil {
		return errors.New("session: no render backend")
	}
	d := s.desc
	width, height := s.host.GetFramebufferSize()

	sc := scene.NewScene()
	sc.Background = d.Background
	if d.Fog != nil {
		sc.Fog = &scene.Fog{Color: d.Fog.Color, Near: d.Fog.Near, Far: d.Fog.Far}
	}
	if h := d.Hemisphere; h != nil {
		sc.Hemisphere = &scene.HemisphereLight{Sky: h.Sky, Ground: h.Ground, Intensity: h.Intensity}
	}
	for _, l := range d.Directionals {
		sc.AddDirectional(&scene.DirectionalLight{
			Position:      l.Position,
			Target:        l.Target,
			Color:         l.Color,
			Intensity:     l.Intensity,
			CastShadow:    l.CastShadow,
			ShadowMapSize: d.Render.ShadowMapSize,
		})
	}
	if g := d.Ground; g != nil {
		n := surfaceNode("ground", scene.CreatePlane(g.Width, g.Depth), g)
		sc.AddNode(n)
	}
	if b := d.Backdrop; b != nil {
		n := surfaceNode("backdrop", scene.CreateBox(b.Width, b.Height, b.Depth), b)
		sc.AddNode(n)
	}

	aspect := float32(16.0 / 9.0)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}
	cam := scene.NewCamera(d.Camera.FOV, aspect, d.Camera.Near, d.Camera.Far)
	cam.SetPosition(d.Camera.Position)
	cam.LookAt(d.Camera.Target)

	orbit := controls.NewOrbit(cam, d.Camera.Target)
	orbit.Damping = d.Controls.Damping
	if d.Controls.MinDistance > 0 {
		orbit.MinDistance = d.Controls.MinDistance
	}
	if d.Controls.MaxDistance > 0 {
		orbit.MaxDistance = d.Controls.MaxDistance
	}
	if d.Controls.MaxPolarAngle > 0 {
		orbit.MaxPolarAngle = d.Controls.MaxPolarAngle
	}

	eng := renderer.NewEngine(s.backend, sc, cam, width, height)
	if d.Render.Exposure > 0 {
		eng.Exposure = d.Render.Exposure
	}
	eng.ShadowExtent = d.Render.ShadowExtent

	s.scene, s.camera, s.orbit, s.engine = sc, cam, orbit, eng
	s.assembler = assembly.New(sc)
	s.bridge = interaction.NewBridge(sc, cam, orbit, eng, s.base)
	s.bridge.Palette = d.Palette
	if w, ok := s.host.(interaction.Window); ok {
		s.bridge.Bind(w)
	} else if height > 0 {
		orbit.SetViewportHeight(height)
	}

	s.setState(SceneBuilt)
	return nil
}

func surfaceNode(name string, mesh *scene.Mesh, sf *profile.Surface) *scene.Node {
	mesh.Material = scene.NewMaterial(name, sf.Color, sf.Roughness, sf.Metalness)
	n := scene.NewNode(name)
	n.Mesh = mesh
	n.ReceiveShadow = true
	n.SetPosition(sf.Position)
	return n
}

// Run issues every model load and presents frames until the host closes
// or ctx ends. A gated profile shows nothing until every load has settled;
// an eager one starts the loop at once and attaches models as they
// arrive. Failed loads are logged and skipped in both cases.
func (s *Session) Run(ctx context.Context) error {
	if s.State() == Uninitialized {
		if err := s.Build(); err != nil {
			return err
		}
	}
	if st := s.State(); st != SceneBuilt {
		return fmt.Errorf("session: run in state %s", st)
	}

	s.results = s.loader.LoadAll(ctx, s.desc.AssetPtrs())
	s.updateTitle()
	s.loop = renderer.NewLoop(s.host, s.step)

	if s.desc.Readiness == profile.Gated {
		s.setState(AssetsLoading)
		if err := s.awaitModels(ctx); err != nil {
			return err
		}
		s.setState(Ready)
	}
	if s.host.ShouldClose() {
		return nil
	}

	s.setState(Running)
	if err := s.loop.Run(ctx); err != nil {
		return fmt.Errorf("run %s: %w", s.desc.Name, err)
	}
	return nil
}

// awaitModels keeps the window responsive until every load has settled.
func (s *Session) awaitModels(ctx context.Context) error {
	tick := time.NewTicker(pumpInterval)
	defer tick.Stop()
	for s.results != nil {
		select {
		case r, ok := <-s.results:
			if !ok {
				s.results = nil
				continue
			}
			s.attach(r)
		case <-tick.C:
			s.host.PollEvents()
			if s.host.ShouldClose() {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *Session) step(dt float32) error {
	s.drain()
	s.elapsed += float64(dt)
	s.orbit.Update()
	s.animateLift()
	if err := s.engine.Render(); err != nil {
		return err
	}
	if s.elapsed-s.lastLog >= statsEvery {
		s.lastLog = s.elapsed
		st := s.engine.Stats()
		s.log.Debug("frame stats", "frames", s.Frames(), "objects", st.Objects,
			"transparent", st.Transparent, "triangles", st.Triangles, "culled", st.Culled)
	}
	return nil
}

// drain attaches every result that has arrived without waiting for more.
func (s *Session) drain() {
	for s.results != nil {
		select {
		case r, ok := <-s.results:
			if !ok {
				s.results = nil
				return
			}
			s.attach(r)
		default:
			return
		}
	}
}

func (s *Session) attach(r asset.Result) {
	s.settled++
	defer s.updateTitle()

	if r.Err != nil {
		s.failed++
		return
	}
	d := r.Descriptor
	if _, err := s.assembler.Attach(r.Node, d); err != nil {
		s.failed++
		s.log.Error("attach", "asset", d.Name, "err", err)
		return
	}
	if s.lifts(d.Name) {
		s.liftBase[d.Name] = d.Transform.Position.Y()
		s.animateLift()
	}
	s.log.Debug("attached", "asset", d.Name, "meshes", len(r.Node.MeshesByMaterial("")))
}

func (s *Session) lifts(name string) bool {
	if s.desc.Lift == nil {
		return false
	}
	for _, n := range s.desc.Lift.Nodes {
		if n == name {
			return true
		}
	}
	return false
}

// animateLift raises every attached lift node to its base height plus the
// lift offset for the elapsed time.
func (s *Session) animateLift() {
	l := s.desc.Lift
	if l == nil || len(s.liftBase) == 0 {
		return
	}
	off := l.Offset(s.elapsed)
	for name, base := range s.liftBase {
		n, ok := s.assembler.Attached(name)
		if !ok {
			continue
		}
		p := n.Transform.Position
		y := base + off
		if math.Abs(float64(p.Y()-y)) < 1e-6 {
			continue
		}
		p[1] = y
		n.SetPosition(p)
	}
}

func (s *Session) updateTitle() {
	total := len(s.desc.Assets)
	title := s.desc.Name
	switch {
	case s.settled < total && s.failed > 0:
		title = fmt.Sprintf("%s (loading %d/%d, %d failed)", s.desc.Name, s.settled, total, s.failed)
	case s.settled < total:
		title = fmt.Sprintf("%s (loading %d/%d)", s.desc.Name, s.settled, total)
	case s.failed > 0:
		title = fmt.Sprintf("%s (%d failed)", s.desc.Name, s.failed)
	}
	if title == s.title {
		return
	}
	s.title = title
	s.host.SetTitle(title)
}

// Close releases GPU resources. The host window belongs to the caller.
func (s *Session) Close() {
	switch {
	case s.engine != nil:
		s.engine.Destroy()
	case s.backend != nil:
		s.backend.Destroy()
	}
}
