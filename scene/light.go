package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"showroom/core"
)

// HemisphereLight is an ambient term that fades from Sky (normals pointing
// up) to Ground (normals pointing down).
type HemisphereLight struct {
	Sky       core.Color
	Ground    core.Color
	Intensity float32
}

// DirectionalLight shines from Position toward Target, like the sun.
type DirectionalLight struct {
	Position  mgl32.Vec3
	Target    mgl32.Vec3
	Color     core.Color
	Intensity float32

	CastShadow    bool
	ShadowMapSize int
}

// Direction is the unit vector the light travels along.
func (l *DirectionalLight) Direction() mgl32.Vec3 {
	d := l.Target.Sub(l.Position)
	if d.Len() == 0 {
		return mgl32.Vec3{0, -1, 0}
	}
	return d.Normalize()
}
