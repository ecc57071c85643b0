package profile

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"showroom/asset"
	"showroom/core"
)

const (
	liftBaseY = 0.02
	carBaseY  = 1.65
	carYaw    = math.Pi / 5
)

var builtins = map[string]func() *Description{
	"workshop":          workshop,
	"workshop-static":   workshopStatic,
	"workshop-animated": workshopAnimated,
	"showroom":          showroom,
}

// Lookup returns a fresh copy of the named built-in profile.
func Lookup(name string) (*Description, error) {
	build, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownProfile, name)
	}
	return build(), nil
}

// Names lists the built-in profiles, sorted.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Default is the base every profile, built-in or file, starts from.
func Default() *Description {
	return &Description{
		Name:       "custom",
		Background: core.ColorHex(0xa0a0a0),
		Camera: Camera{
			FOV:      45,
			Near:     0.1,
			Far:      100,
			Position: mgl32.Vec3{8, 5, 10},
		},
		Controls: Controls{
			Damping:       0.05,
			MinDistance:   5,
			MaxDistance:   20,
			MaxPolarAngle: math.Pi/2 - 0.05,
		},
		Render: Render{
			Exposure:      1.2,
			ShadowMapSize: 2048,
			ShadowExtent:  15,
		},
		Readiness: Gated,
	}
}

func lift() asset.Descriptor {
	return asset.Descriptor{
		Name:   "lift",
		Source: "models/elevador.glb",
		Transform: asset.Placement{
			Position: mgl32.Vec3{0, liftBaseY, 0},
			Scale:    mgl32.Vec3{1.2, 1.2, 1.2},
		},
	}
}

func workshop() *Description {
	d := Default()
	d.Name = "workshop"
	d.Fog = &Fog{Color: core.ColorHex(0xa0a0a0), Near: 10, Far: 50}
	d.Hemisphere = &Hemisphere{Sky: core.ColorWhite, Ground: core.ColorHex(0x444444), Intensity: 0.6}
	d.Directionals = []Directional{{
		Color:      core.ColorWhite,
		Intensity:  1.5,
		Position:   mgl32.Vec3{10, 20, 10},
		CastShadow: true,
	}}
	d.Ground = &Surface{Width: 50, Depth: 50, Color: core.ColorHex(0x666666), Roughness: 0.4, Metalness: 0.1}
	d.Backdrop = &Surface{
		Width: 50, Height: 40, Depth: 1,
		Position:  mgl32.Vec3{0, 20, -15},
		Color:     core.ColorHex(0x888888),
		Roughness: 1,
	}
	d.Assets = []asset.Descriptor{
		lift(),
		{
			Name:   "car",
			Source: "models/porche.glb",
			Transform: asset.Placement{
				Position: mgl32.Vec3{0, carBaseY, 0},
				Rotation: mgl32.Vec3{0, carYaw, 0},
			},
			MaterialRules: []asset.MaterialRule{
				{Override: asset.Override{EnvMapIntensity: asset.Ptr[float32](1)}},
			},
		},
	}
	return d
}

func workshopStatic() *Description {
	d := Default()
	d.Name = "workshop-static"
	d.Background = core.ColorHex(0x333333)
	d.Fog = &Fog{Color: core.ColorHex(0x333333), Near: 10, Far: 50}
	d.Camera.FOV = 40
	d.Camera.Position = mgl32.Vec3{10, 5, 12}
	d.Camera.Target = mgl32.Vec3{0, 2, 0}
	d.Controls.MinDistance = 4
	d.Hemisphere = &Hemisphere{Sky: core.ColorWhite, Ground: core.ColorHex(0x222222), Intensity: 0.6}
	d.Directionals = []Directional{
		{Color: core.ColorWhite, Intensity: 2.5, Position: mgl32.Vec3{5, 10, 8}, CastShadow: true},
		{Color: core.ColorWhite, Intensity: 1, Position: mgl32.Vec3{-5, 5, -5}},
	}
	d.Ground = &Surface{Width: 60, Depth: 60, Color: core.ColorHex(0x1a1a1a), Roughness: 0.7, Metalness: 0.2}
	d.Assets = []asset.Descriptor{
		lift(),
		{
			Name:   "car",
			Source: "models/aventador.glb",
			Transform: asset.Placement{
				Position: mgl32.Vec3{0, carBaseY, 0},
				Rotation: mgl32.Vec3{0, carYaw, 0},
			},
			MaterialRules: []asset.MaterialRule{{Override: asset.Override{
				EnvMapIntensity: asset.Ptr[float32](2),
				Roughness:       asset.Ptr[float32](0.2),
				Metalness:       asset.Ptr[float32](0.8),
			}}},
		},
	}
	d.Readiness = Eager
	d.Lift = &Lift{Mode: LiftFixed, Height: 1.5, Nodes: []string{"lift", "car"}}
	return d
}

func workshopAnimated() *Description {
	d := workshopStatic()
	d.Name = "workshop-animated"
	d.Lift = &Lift{Mode: LiftAnimated, Height: 1.5, Speed: 1, Nodes: []string{"lift", "car"}}
	return d
}

func showroom() *Description {
	d := workshop()
	d.Name = "showroom"
	d.Background = core.ColorHex(0x202020)
	d.Fog = &Fog{Color: core.ColorHex(0x202020), Near: 12, Far: 60}
	d.Backdrop = nil
	d.Ground.Color = core.ColorHex(0x2b2b2b)
	d.Ground.Roughness = 0.3
	d.Assets = []asset.Descriptor{{
		Name:   "car",
		Source: "models/porche.glb",
		Transform: asset.Placement{
			Rotation: mgl32.Vec3{0, carYaw, 0},
		},
		Normalize: &asset.Normalization{MaxDimension: 5},
		MaterialRules: []asset.MaterialRule{
			{Override: asset.Override{EnvMapIntensity: asset.Ptr[float32](1)}},
			{Match: "glass", Override: asset.Override{
				BaseColor: asset.Ptr(core.ColorBlack),
				Opacity:   asset.Ptr[float32](1),
				Roughness: asset.Ptr[float32](0.05),
				Metalness: asset.Ptr[float32](0.95),
			}},
			{Match: "carpaint", Override: asset.Override{
				Roughness: asset.Ptr[float32](0.25),
				Metalness: asset.Ptr[float32](0.6),
			}},
		},
	}}
	d.Palette = []Swatch{
		{Label: "Guards Red", Color: core.ColorHex(0xc4161c), Target: "carpaint"},
		{Label: "Racing Yellow", Color: core.ColorHex(0xf7c600), Target: "carpaint"},
		{Label: "Gentian Blue", Color: core.ColorHex(0x1f3a6b), Target: "carpaint"},
		{Label: "Chalk", Color: core.ColorHex(0xd8d6cf), Target: "carpaint"},
		{Label: "Jet Black", Color: core.ColorHex(0x0b0b0b), Target: "carpaint"},
	}
	return d
}
