package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"showroom/core"
)

// CreatePlane generates a flat plane in the XZ plane facing +Y, centred on
// the origin.
func CreatePlane(width, depth float32) *Mesh {
	hw, hd := width/2, depth/2
	up := mgl32.Vec3{0, 1, 0}
	vertices := []core.Vertex{
		{Position: mgl32.Vec3{-hw, 0, -hd}, Normal: up, UV: mgl32.Vec2{0, 0}},
		{Position: mgl32.Vec3{hw, 0, -hd}, Normal: up, UV: mgl32.Vec2{1, 0}},
		{Position: mgl32.Vec3{hw, 0, hd}, Normal: up, UV: mgl32.Vec2{1, 1}},
		{Position: mgl32.Vec3{-hw, 0, hd}, Normal: up, UV: mgl32.Vec2{0, 1}},
	}
	// Counter-clockwise seen from above.
	indices := []uint32{0, 2, 1, 0, 3, 2}
	return CreateMeshFromData("Plane", vertices, indices)
}

// CreateBox generates a box of the given extents centred on the origin,
// with per-face normals.
func CreateBox(width, height, depth float32) *Mesh {
	x, y, z := width/2, height/2, depth/2

	type face struct {
		normal  mgl32.Vec3
		corners [4]mgl32.Vec3
	}
	faces := []face{
		{mgl32.Vec3{0, 0, 1}, [4]mgl32.Vec3{{-x, -y, z}, {x, -y, z}, {x, y, z}, {-x, y, z}}},
		{mgl32.Vec3{0, 0, -1}, [4]mgl32.Vec3{{x, -y, -z}, {-x, -y, -z}, {-x, y, -z}, {x, y, -z}}},
		{mgl32.Vec3{0, 1, 0}, [4]mgl32.Vec3{{-x, y, z}, {x, y, z}, {x, y, -z}, {-x, y, -z}}},
		{mgl32.Vec3{0, -1, 0}, [4]mgl32.Vec3{{-x, -y, -z}, {x, -y, -z}, {x, -y, z}, {-x, -y, z}}},
		{mgl32.Vec3{1, 0, 0}, [4]mgl32.Vec3{{x, -y, z}, {x, -y, -z}, {x, y, -z}, {x, y, z}}},
		{mgl32.Vec3{-1, 0, 0}, [4]mgl32.Vec3{{-x, -y, -z}, {-x, -y, z}, {-x, y, z}, {-x, y, -z}}},
	}
	uvs := [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	vertices := make([]core.Vertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		base := uint32(len(vertices))
		for i, c := range f.corners {
			vertices = append(vertices, core.Vertex{Position: c, Normal: f.normal, UV: uvs[i]})
		}
		indices = append(indices, base, base+1, base+2, base+2, base+3, base)
	}
	return CreateMeshFromData("Box", vertices, indices)
}
