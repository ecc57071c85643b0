// Package profile holds scene descriptions: the static, declarative setup
// of a showroom (environment, lights, camera, floor, models to load).
package profile

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"showroom/asset"
	"showroom/core"
)

// ErrUnknownProfile is returned by Lookup for a name with no built-in.
var ErrUnknownProfile = errors.New("profile: unknown profile")

// Readiness decides when the frame loop starts.
type Readiness int

const (
	// Gated waits until every asset has loaded or failed before the first frame.
	Gated Readiness = iota
	// Eager starts rendering right after static setup and attaches models as
	// they arrive.
	Eager
)

func (r Readiness) String() string {
	if r == Eager {
		return "eager"
	}
	return "gated"
}

func (r Readiness) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Readiness) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "gated":
		*r = Gated
	case "eager":
		*r = Eager
	default:
		return fmt.Errorf("readiness %q: want gated or eager", b)
	}
	return nil
}

// LiftMode selects how a Lift moves its nodes.
type LiftMode int

const (
	LiftFixed LiftMode = iota
	LiftAnimated
)

func (m LiftMode) String() string {
	if m == LiftAnimated {
		return "animated"
	}
	return "fixed"
}

func (m LiftMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *LiftMode) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "fixed":
		*m = LiftFixed
	case "animated":
		*m = LiftAnimated
	default:
		return fmt.Errorf("lift mode %q: want fixed or animated", b)
	}
	return nil
}

// Description is a complete scene profile.
type Description struct {
	Name       string     `toml:"name"`
	Background core.Color `toml:"background"`
	Fog        *Fog       `toml:"fog"`
	Camera     Camera     `toml:"camera"`
	Controls   Controls   `toml:"controls"`
	Render     Render     `toml:"render"`

	Hemisphere   *Hemisphere   `toml:"hemisphere"`
	Directionals []Directional `toml:"directional"`

	Ground   *Surface `toml:"ground"`
	Backdrop *Surface `toml:"backdrop"`

	Assets    []asset.Descriptor `toml:"assets"`
	Readiness Readiness          `toml:"readiness"`
	Lift      *Lift              `toml:"lift"`
	Palette   []Swatch           `toml:"palette"`
}

// Fog fades geometry linearly into Color between Near and Far.
type Fog struct {
	Color core.Color `toml:"color"`
	Near  float32    `toml:"near"`
	Far   float32    `toml:"far"`
}

type Camera struct {
	FOV      float32    `toml:"fov"` // vertical, degrees
	Near     float32    `toml:"near"`
	Far      float32    `toml:"far"`
	Position mgl32.Vec3 `toml:"position"`
	Target   mgl32.Vec3 `toml:"target"`
}

// Controls configure the orbit camera.
type Controls struct {
	Damping       float32 `toml:"damping"`
	MinDistance   float32 `toml:"min_distance"`
	MaxDistance   float32 `toml:"max_distance"`
	MaxPolarAngle float32 `toml:"max_polar_angle"` // radians from straight up
}

type Render struct {
	Exposure      float32 `toml:"exposure"`
	ShadowMapSize int     `toml:"shadow_map_size"`
	ShadowExtent  float32 `toml:"shadow_extent"`
}

type Hemisphere struct {
	Sky       core.Color `toml:"sky"`
	Ground    core.Color `toml:"ground"`
	Intensity float32    `toml:"intensity"`
}

type Directional struct {
	Color      core.Color `toml:"color"`
	Intensity  float32    `toml:"intensity"`
	Position   mgl32.Vec3 `toml:"position"`
	Target     mgl32.Vec3 `toml:"target"`
	CastShadow bool       `toml:"cast_shadow"`
}

// Surface is a flat ground plane (Height 0) or a box backdrop.
type Surface struct {
	Width     float32    `toml:"width"`
	Height    float32    `toml:"height"`
	Depth     float32    `toml:"depth"`
	Position  mgl32.Vec3 `toml:"position"`
	Color     core.Color `toml:"color"`
	Roughness float32    `toml:"roughness"`
	Metalness float32    `toml:"metalness"`
}

// Lift raises the named assets above their placed height: by Height when
// fixed, or oscillating between 0 and Height at Speed rad/s when animated.
type Lift struct {
	Mode   LiftMode `toml:"mode"`
	Height float32  `toml:"height"`
	Speed  float32  `toml:"speed"`
	Nodes  []string `toml:"nodes"`
}

// Offset is the lift's vertical displacement t seconds after start.
func (l *Lift) Offset(t float64) float32 {
	if l.Mode == LiftFixed {
		return l.Height
	}
	return l.Height * float32(math.Sin(t*float64(l.Speed))+1) / 2
}

// Swatch is one entry of the paint palette.
type Swatch struct {
	Label  string     `toml:"label"`
	Color  core.Color `toml:"color"`
	Target string     `toml:"target"` // material-name substring
}

// Asset returns the descriptor with the given name, or nil.
func (d *Description) Asset(name string) *asset.Descriptor {
	for i := range d.Assets {
		if d.Assets[i].Name == name {
			return &d.Assets[i]
		}
	}
	return nil
}

// AssetPtrs returns pointers into d.Assets, in declaration order.
func (d *Description) AssetPtrs() []*asset.Descriptor {
	out := make([]*asset.Descriptor, len(d.Assets))
	for i := range d.Assets {
		out[i] = &d.Assets[i]
	}
	return out
}

// Validate reports every problem found in d.
func (d *Description) Validate() error {
	var errs []error
	add := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	if d.Name == "" {
		add("name is empty")
	}
	c := d.Camera
	if c.FOV <= 0 || c.FOV >= 180 {
		add("camera fov %v outside (0, 180)", c.FOV)
	}
	if c.Near <= 0 || c.Near >= c.Far {
		add("camera near %v / far %v: want 0 < near < far", c.Near, c.Far)
	}
	ctl := d.Controls
	if ctl.Damping < 0 || ctl.Damping > 1 {
		add("controls damping %v outside [0, 1]", ctl.Damping)
	}
	if ctl.MaxDistance > 0 && ctl.MinDistance > ctl.MaxDistance {
		add("controls min distance %v above max %v", ctl.MinDistance, ctl.MaxDistance)
	}
	if f := d.Fog; f != nil && f.Near >= f.Far {
		add("fog near %v / far %v: want near < far", f.Near, f.Far)
	}
	if len(d.Directionals) > 4 {
		add("%d directional lights, at most 4 supported", len(d.Directionals))
	}
	if d.Render.ShadowMapSize < 0 {
		add("shadow map size %d", d.Render.ShadowMapSize)
	}

	seen := map[string]bool{}
	for i := range d.Assets {
		a := &d.Assets[i]
		if err := a.Validate(); err != nil {
			errs = append(errs, err)
		}
		if seen[a.Name] {
			add("asset %q declared twice", a.Name)
		}
		seen[a.Name] = true
	}
	if l := d.Lift; l != nil {
		if l.Height < 0 {
			add("lift height %v is negative", l.Height)
		}
		if l.Mode == LiftAnimated && l.Speed <= 0 {
			add("animated lift speed %v must be positive", l.Speed)
		}
		for _, n := range l.Nodes {
			if !seen[n] {
				add("lift node %q is not a declared asset", n)
			}
		}
	}
	for i, s := range d.Palette {
		if strings.TrimSpace(s.Target) == "" {
			add("palette entry %d (%s) has no target", i, s.Label)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("profile %q: %w", d.Name, errors.Join(errs...))
	}
	return nil
}
