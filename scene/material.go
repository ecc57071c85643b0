package scene

import "showroom/core"

// Material describes a metallic-roughness surface.
type Material struct {
	Name      string
	BaseColor core.Color
	Roughness float32 // 0 = mirror, 1 = fully rough
	Metalness float32 // 0 = dielectric, 1 = metal
	Opacity   float32 // 1 = fully opaque

	// Transparent enables blending; Opacity is ignored otherwise.
	Transparent bool
	DoubleSided bool

	// EnvMapIntensity scales the ambient (hemisphere) specular reflection.
	EnvMapIntensity float32

	// Optional base colour texture, multiplied with BaseColor.
	BaseColorTexture *Texture
}

// DefaultMaterial returns a plain white dielectric.
func DefaultMaterial() *Material {
	return &Material{
		Name:            "Default",
		BaseColor:       core.ColorWhite,
		Roughness:       1,
		Metalness:       0,
		Opacity:         1,
		EnvMapIntensity: 1,
	}
}

// NewMaterial creates a material with the given base colour, roughness and metalness.
func NewMaterial(name string, color core.Color, roughness, metalness float32) *Material {
	m := DefaultMaterial()
	m.Name = name
	m.BaseColor = color
	m.Roughness = roughness
	m.Metalness = metalness
	return m
}

// IsTransparent reports whether the material needs the blended pass.
func (m *Material) IsTransparent() bool {
	return m.Transparent && m.Opacity < 1
}
