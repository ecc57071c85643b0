package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showroom/core"
)

func meshNode(name, material string, half float32) *Node {
	n := NewNode(name)
	n.Mesh = CreateBox(2*half, 2*half, 2*half)
	n.Mesh.Material = NewMaterial(material, core.ColorWhite, 0.5, 0)
	return n
}

func TestWorldMatrixFollowsParent(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	parent.AddChild(child)

	child.SetPosition(mgl32.Vec3{1, 0, 0})
	parent.SetPosition(mgl32.Vec3{0, 5, 0})

	got := mgl32.TransformCoordinate(mgl32.Vec3{}, child.GetWorldMatrix())
	assert.True(t, got.ApproxEqual(mgl32.Vec3{1, 5, 0}), "got %v", got)

	// Reparenting must invalidate the cached matrix.
	other := NewNode("other")
	other.SetPosition(mgl32.Vec3{0, 0, -3})
	other.AddChild(child)
	got = mgl32.TransformCoordinate(mgl32.Vec3{}, child.GetWorldMatrix())
	assert.True(t, got.ApproxEqual(mgl32.Vec3{1, 0, -3}), "got %v", got)
	assert.Empty(t, parent.Children)
}

func TestNodeIdsAreUnique(t *testing.T) {
	seen := map[uint32]bool{}
	for i := 0; i < 100; i++ {
		id := NewNode("n").Id
		require.False(t, seen[id])
		seen[id] = true
	}
}

func TestIsVisibleChecksAncestors(t *testing.T) {
	s := NewScene()
	group := NewNode("group")
	leaf := meshNode("leaf", "paint", 1)
	group.AddChild(leaf)
	s.AddNode(group)

	assert.Len(t, s.GetVisibleNodes(), 1)
	group.Visible = false
	assert.False(t, leaf.IsVisible())
	assert.Empty(t, s.GetVisibleNodes())
}

func TestMeshesByMaterial(t *testing.T) {
	root := NewNode("car")
	root.AddChild(meshNode("body", "CarPaint_Red", 1))
	root.AddChild(meshNode("door", "carpaint_door", 1))
	root.AddChild(meshNode("window", "Glass_Front", 1))
	root.AddChild(NewNode("empty"))

	assert.Len(t, root.MeshesByMaterial("CARPAINT"), 2)
	assert.Len(t, root.MeshesByMaterial("glass"), 1)
	assert.Len(t, root.MeshesByMaterial(""), 3)
	assert.Empty(t, root.MeshesByMaterial("chrome"))
}

func TestBoundingBoxExcludesOwnTransform(t *testing.T) {
	root := NewNode("root")
	root.SetPosition(mgl32.Vec3{100, 100, 100})
	a := meshNode("a", "m", 1)
	b := meshNode("b", "m", 1)
	b.SetTransform(core.Transform{
		Position: mgl32.Vec3{4, 0, 0},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{2, 2, 2},
	})
	root.AddChild(a)
	root.AddChild(b)

	box := root.BoundingBox()
	assert.True(t, box.Min.ApproxEqual(mgl32.Vec3{-1, -2, -2}), "min %v", box.Min)
	assert.True(t, box.Max.ApproxEqual(mgl32.Vec3{6, 2, 2}), "max %v", box.Max)
	assert.InDelta(t, 7, box.MaxDimension(), 1e-5)

	assert.True(t, NewNode("bare").BoundingBox().IsEmpty())
}

func TestFrustumCulling(t *testing.T) {
	cam := NewCamera(45, 1, 0.1, 100)
	cam.SetPosition(mgl32.Vec3{0, 0, 10})
	cam.LookAt(mgl32.Vec3{})
	f := FrustumFromVP(cam.GetViewProjectionMatrix())

	inside := AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	behind := AABB{Min: mgl32.Vec3{-1, -1, 20}, Max: mgl32.Vec3{1, 1, 22}}
	aside := AABB{Min: mgl32.Vec3{50, -1, -1}, Max: mgl32.Vec3{52, 1, 1}}

	assert.True(t, inside.IntersectsFrustum(&f))
	assert.False(t, behind.IntersectsFrustum(&f))
	assert.False(t, aside.IntersectsFrustum(&f))
}

func TestCameraAspectIgnoresDegenerateSizes(t *testing.T) {
	cam := NewCamera(45, 1, 0.1, 100)
	cam.UpdateAspectRatio(800, 600)
	assert.InDelta(t, 800.0/600.0, cam.AspectRatio, 1e-6)
	cam.UpdateAspectRatio(0, 600)
	cam.UpdateAspectRatio(800, -1)
	assert.InDelta(t, 800.0/600.0, cam.AspectRatio, 1e-6)
}
