package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mgl32.Vec3
}

// EmptyAABB returns an inverted box that any point expansion replaces.
func EmptyAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

func (b AABB) ExpandPoint(p mgl32.Vec3) AABB {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
	return b
}

func (b AABB) Union(o AABB) AABB {
	if o.IsEmpty() {
		return b
	}
	return b.ExpandPoint(o.Min).ExpandPoint(o.Max)
}

func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b AABB) Size() mgl32.Vec3 {
	if b.IsEmpty() {
		return mgl32.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// MaxDimension is the largest edge length of the box.
func (b AABB) MaxDimension() float32 {
	s := b.Size()
	return max(s[0], s[1], s[2])
}

// Transform returns the box enclosing b after transforming its 8 corners by m.
func (b AABB) Transform(m mgl32.Mat4) AABB {
	if b.IsEmpty() {
		return b
	}
	mn, mx := b.Min, b.Max
	corners := [8]mgl32.Vec3{
		{mn[0], mn[1], mn[2]},
		{mx[0], mn[1], mn[2]},
		{mn[0], mx[1], mn[2]},
		{mx[0], mx[1], mn[2]},
		{mn[0], mn[1], mx[2]},
		{mx[0], mn[1], mx[2]},
		{mn[0], mx[1], mx[2]},
		{mx[0], mx[1], mx[2]},
	}
	out := EmptyAABB()
	for _, c := range corners {
		out = out.ExpandPoint(mgl32.TransformCoordinate(c, m))
	}
	return out
}

// BoundingBox computes the AABB of every mesh under n, expressed in n's
// local space (n's own transform is not applied).
func (n *Node) BoundingBox() AABB {
	box := EmptyAABB()
	var walk func(c *Node, m mgl32.Mat4)
	walk = func(c *Node, m mgl32.Mat4) {
		if c.Mesh != nil && c.Mesh.HasLocalAABB {
			box = box.Union(c.Mesh.LocalAABB.Transform(m))
		}
		for _, child := range c.Children {
			walk(child, m.Mul4(child.Transform.GetMatrix()))
		}
	}
	walk(n, mgl32.Ident4())
	return box
}
