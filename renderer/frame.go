// Package renderer turns a scene and camera into per-frame draw lists and
// drives the frame loop. GPU work is delegated to a Backend.
package renderer

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"showroom/core"
	"showroom/scene"
)

// DrawItem is one mesh to draw with its world matrix.
type DrawItem struct {
	Node     *scene.Node
	Mesh     *scene.Mesh
	Material *scene.Material
	Model    mgl32.Mat4
	// Depth is the view-space distance of the item's bounds centre.
	Depth float32
}

// ShadowPass describes the depth pass for the shadow-casting light.
type ShadowPass struct {
	Light      *scene.DirectionalLight
	LightSpace mgl32.Mat4 // projection · view of the light
	MapSize    int
	Casters    []DrawItem
}

// Frame is everything a backend needs to draw one image.
type Frame struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	CameraPos  mgl32.Vec3

	Background core.Color
	Fog        *scene.Fog
	Hemisphere *scene.HemisphereLight
	Lights     []*scene.DirectionalLight
	Exposure   float32

	Shadow      *ShadowPass
	Opaque      []DrawItem
	Transparent []DrawItem // sorted back to front

	Culled int
}

// FrameOptions tune BuildFrame.
type FrameOptions struct {
	Exposure float32
	// ShadowExtent is the half-size of the light's orthographic volume.
	ShadowExtent   float32
	FrustumCulling bool
}

const (
	defaultShadowMapSize = 2048
	defaultShadowExtent  = 15
)

// BuildFrame collects the visible meshes of s as seen from cam.
func BuildFrame(s *scene.Scene, cam *scene.Camera, opts FrameOptions) *Frame {
	f := &Frame{
		View:       cam.GetViewMatrix(),
		Projection: cam.GetProjectionMatrix(),
		CameraPos:  cam.Position,
		Background: s.Background,
		Fog:        s.Fog,
		Hemisphere: s.Hemisphere,
		Lights:     s.Directionals,
		Exposure:   opts.Exposure,
	}
	if f.Exposure <= 0 {
		f.Exposure = 1
	}

	frustum := scene.FrustumFromVP(cam.GetViewProjectionMatrix())
	light := s.ShadowLight()
	if light != nil {
		f.Shadow = &ShadowPass{
			Light:      light,
			LightSpace: LightSpaceMatrix(light, opts.ShadowExtent),
			MapSize:    light.ShadowMapSize,
		}
		if f.Shadow.MapSize <= 0 {
			f.Shadow.MapSize = defaultShadowMapSize
		}
	}

	for _, node := range s.GetVisibleNodes() {
		mat := node.Mesh.Material
		if mat == nil {
			mat = scene.DefaultMaterial()
		}
		item := DrawItem{Node: node, Mesh: node.Mesh, Material: mat, Model: node.GetWorldMatrix()}

		if f.Shadow != nil && node.CastShadow && !mat.IsTransparent() {
			f.Shadow.Casters = append(f.Shadow.Casters, item)
		}

		box := node.WorldAABB()
		if opts.FrustumCulling && !box.IsEmpty() && !box.IntersectsFrustum(&frustum) {
			f.Culled++
			continue
		}
		center := item.Model.Col(3).Vec3()
		if !box.IsEmpty() {
			center = box.Center()
		}
		item.Depth = -mgl32.TransformCoordinate(center, f.View)[2]

		if mat.IsTransparent() {
			f.Transparent = append(f.Transparent, item)
		} else {
			f.Opaque = append(f.Opaque, item)
		}
	}

	sort.SliceStable(f.Transparent, func(i, j int) bool {
		return f.Transparent[i].Depth > f.Transparent[j].Depth
	})
	return f
}

// LightSpaceMatrix is the orthographic projection · view of a directional
// light looking from its position at its target, covering a square of
// half-size extent around the target.
func LightSpaceMatrix(l *scene.DirectionalLight, extent float32) mgl32.Mat4 {
	if extent <= 0 {
		extent = defaultShadowExtent
	}
	dir := l.Direction()
	up := mgl32.Vec3{0, 1, 0}
	if math.Abs(float64(dir.Dot(up))) > 0.999 {
		up = mgl32.Vec3{0, 0, 1}
	}
	eye := l.Position
	if l.Target.Sub(eye).Len() == 0 {
		eye = l.Target.Sub(dir.Mul(extent))
	}
	dist := l.Target.Sub(eye).Len()

	view := mgl32.LookAtV(eye, l.Target, up)
	proj := mgl32.Ortho(-extent, extent, -extent, extent, 0.1, dist+extent*2)
	return proj.Mul4(view)
}
