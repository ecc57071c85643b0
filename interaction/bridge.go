// Package interaction turns host events into camera and model changes.
package interaction

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"showroom/assembly"
	"showroom/controls"
	"showroom/core"
	"showroom/profile"
	"showroom/scene"
)

// ErrNoTarget is returned for a colour change that names no material.
var ErrNoTarget = errors.New("interaction: empty material target")

// Viewport is the drawable surface the bridge keeps in step with the window.
type Viewport interface {
	Resize(width, height int)
}

// Window is the subset of the host window the bridge listens on.
type Window interface {
	SetFramebufferSizeCallback(cb func(width, height int))
	SetSizeCallback(cb func(width, height int))
	GetSize() (width, height int)
	SetCursorPosCallback(cb func(x, y float64))
	SetMouseButtonCallback(cb func(button int, pressed bool))
	SetScrollCallback(cb func(xoff, yoff float64))
	SetKeyCallback(cb func(key int, pressed bool))
	SetShouldClose(v bool)
}

// Bridge applies user input to the running scene. All methods must be
// called from the goroutine that owns the scene graph.
type Bridge struct {
	Scene    *scene.Scene
	Camera   *scene.Camera
	Orbit    *controls.Orbit
	Viewport Viewport
	Palette  []profile.Swatch

	log              *slog.Logger
	cursorX, cursorY float64
}

func NewBridge(s *scene.Scene, cam *scene.Camera, orbit *controls.Orbit, vp Viewport, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{
		Scene:    s,
		Camera:   cam,
		Orbit:    orbit,
		Viewport: vp,
		log:      log.With("component", "interaction"),
	}
}

// OnResize follows a framebuffer size change, in pixels. Only the
// projection changes; the camera keeps its position and orientation.
// Non-positive sizes, as reported for a minimised window, are ignored.
func (b *Bridge) OnResize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	b.Camera.UpdateAspectRatio(float32(width), float32(height))
	if b.Viewport != nil {
		b.Viewport.Resize(width, height)
	}
	b.log.Debug("resize", "width", width, "height", height)
}

// OnWindowSize follows a window size change in screen coordinates. Drag
// speeds are scaled by this height because cursor positions use the same
// units, which differ from framebuffer pixels on high-DPI displays.
func (b *Bridge) OnWindowSize(width, height int) {
	if width <= 0 || height <= 0 || b.Orbit == nil {
		return
	}
	b.Orbit.SetViewportHeight(height)
}

// OnColorSelect sets the base colour of every mesh whose material name
// contains target and returns how many meshes changed. Before the model
// is attached nothing matches and the call is a no-op.
func (b *Bridge) OnColorSelect(target, color string) (int, error) {
	if strings.TrimSpace(target) == "" {
		return 0, ErrNoTarget
	}
	c, err := core.ParseColor(color)
	if err != nil {
		return 0, fmt.Errorf("select color for %q: %w", target, err)
	}
	return b.recolor(target, c), nil
}

// OnSwatch applies palette entry i.
func (b *Bridge) OnSwatch(i int) (int, error) {
	if i < 0 || i >= len(b.Palette) {
		return 0, fmt.Errorf("swatch %d: palette has %d entries", i, len(b.Palette))
	}
	s := b.Palette[i]
	if strings.TrimSpace(s.Target) == "" {
		return 0, ErrNoTarget
	}
	b.log.Info("swatch", "label", s.Label, "color", s.Color.Hex())
	return b.recolor(s.Target, s.Color), nil
}

func (b *Bridge) recolor(target string, c core.Color) int {
	n := assembly.Recolor(b.Scene.Root, target, c)
	b.log.Debug("recolor", "target", target, "color", c.Hex(), "meshes", n)
	return n
}

// Bind routes window events: framebuffer size to OnResize, window size to
// OnWindowSize, left drag rotates, right drag pans, scroll dollies, keys
// 1-9 pick swatches and Escape closes the window.
func (b *Bridge) Bind(w Window) {
	w.SetFramebufferSizeCallback(b.OnResize)
	w.SetSizeCallback(b.OnWindowSize)
	b.OnWindowSize(w.GetSize())

	w.SetCursorPosCallback(func(x, y float64) {
		b.cursorX, b.cursorY = x, y
		if b.Orbit != nil {
			b.Orbit.DragTo(x, y)
		}
	})

	w.SetMouseButtonCallback(func(button int, pressed bool) {
		if b.Orbit == nil {
			return
		}
		mode := controls.DragNone
		switch button {
		case core.MouseLeft:
			mode = controls.DragRotate
		case core.MouseRight, core.MouseMiddle:
			mode = controls.DragPan
		}
		switch {
		case pressed && mode != controls.DragNone:
			b.Orbit.BeginDrag(mode, b.cursorX, b.cursorY)
		case !pressed && b.Orbit.Dragging() == mode:
			b.Orbit.EndDrag()
		}
	})

	w.SetScrollCallback(func(_, yoff float64) {
		if b.Orbit != nil {
			b.Orbit.Dolly(float32(yoff))
		}
	})

	w.SetKeyCallback(func(key int, pressed bool) {
		if !pressed {
			return
		}
		switch {
		case key == core.KeyEscape:
			w.SetShouldClose(true)
		case key >= core.Key1 && key <= core.Key9:
			i := key - core.Key1
			if i >= len(b.Palette) {
				return
			}
			if _, err := b.OnSwatch(i); err != nil {
				b.log.Warn("swatch", "index", i, "err", err)
			}
		}
	})
}
