// Package asset declares the external models a scene pulls in and loads
// them asynchronously.
package asset

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"showroom/core"
)

// Descriptor declares one external model: where it comes from, where it goes
// and how its materials are adjusted. Descriptors are immutable once handed
// to a Loader; Name is the identity used for load state and attach.
type Descriptor struct {
	Name          string         `toml:"name"`
	Source        string         `toml:"source"`
	Transform     Placement      `toml:"transform"`
	MaterialRules []MaterialRule `toml:"rules"`
	Normalize     *Normalization `toml:"normalize"`
}

// Placement is a position, XYZ Euler rotation in radians and per-axis scale.
type Placement struct {
	Position mgl32.Vec3 `toml:"position"`
	Rotation mgl32.Vec3 `toml:"rotation"`
	Scale    mgl32.Vec3 `toml:"scale"`
}

// Transform converts the placement for a scene node. An all-zero scale
// means "not given" and becomes 1.
func (p Placement) Transform() core.Transform {
	s := p.Scale
	if s == (mgl32.Vec3{}) {
		s = mgl32.Vec3{1, 1, 1}
	}
	return core.TransformFromEuler(p.Position, p.Rotation, s)
}

// MaterialRule overrides surface parameters on every mesh whose material
// name contains Match, compared case-insensitively. An empty Match selects
// every material in the model.
//
// Matching is purely by name: asset authors must follow the naming
// convention (e.g. "Glass_*", "CarPaint") for rules to take effect.
type MaterialRule struct {
	Match    string   `toml:"match"`
	Override Override `toml:"override"`
}

// Override lists the parameters a rule sets; nil fields are left alone.
type Override struct {
	BaseColor       *core.Color `toml:"color"`
	Roughness       *float32    `toml:"roughness"`
	Metalness       *float32    `toml:"metalness"`
	Opacity         *float32    `toml:"opacity"`
	EnvMapIntensity *float32    `toml:"env_map_intensity"`
	Visible         *bool       `toml:"visible"`
}

// Normalization enables the bounding-box rule: the model is recentred on
// the origin, rests on y=0 and is scaled down uniformly so its largest
// dimension does not exceed MaxDimension.
type Normalization struct {
	MaxDimension float32 `toml:"max_dimension"`
}

// Ptr returns a pointer to v, for filling Override literals.
func Ptr[T any](v T) *T { return &v }

// Validate reports the first problem with d.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return errors.New("asset: descriptor has no name")
	}
	if d.Source == "" {
		return fmt.Errorf("asset %q: no source", d.Name)
	}
	if d.Normalize != nil && d.Normalize.MaxDimension <= 0 {
		return fmt.Errorf("asset %q: normalize max dimension must be positive", d.Name)
	}
	for i, r := range d.MaterialRules {
		o := r.Override
		for _, v := range []*float32{o.Roughness, o.Metalness, o.Opacity} {
			if v != nil && (*v < 0 || *v > 1) {
				return fmt.Errorf("asset %q: rule %d: value %v outside [0,1]", d.Name, i, *v)
			}
		}
	}
	return nil
}
