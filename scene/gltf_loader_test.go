package scene_test

import (
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showroom/internal/gltftest"
	"showroom/scene"
)

func TestDecodeGLTF(t *testing.T) {
	path := gltftest.WriteGLB(t, t.TempDir(), "car.glb",
		gltftest.Cube("Body", "CarPaint", 1),
		gltftest.Part{Node: "Window", Material: "Glass_Front", Min: [3]float32{-1, 1, -1}, Max: [3]float32{1, 2, 1}},
	)

	root, err := scene.DecodeGLTF(path)
	require.NoError(t, err)
	assert.Equal(t, "car", root.Name)
	require.Len(t, root.Children, 2)

	body := root.Find("Body")
	require.NotNil(t, body)
	require.NotNil(t, body.Mesh)
	assert.Equal(t, 12, body.Mesh.TriangleCount())
	require.NotNil(t, body.Mesh.Material)
	assert.Equal(t, "CarPaint", body.Mesh.Material.Name)
	assert.InDelta(t, 0.8, body.Mesh.Material.BaseColor.R, 1e-6)

	// Normals are generated when the file carries none.
	for _, v := range body.Mesh.Vertices {
		assert.InDelta(t, 1, v.Normal.Len(), 1e-4)
	}

	box := root.BoundingBox()
	assert.True(t, box.Min.ApproxEqual(mgl32.Vec3{-1, -1, -1}), "min %v", box.Min)
	assert.True(t, box.Max.ApproxEqual(mgl32.Vec3{1, 2, 1}), "max %v", box.Max)
}

func TestDecodeGLTFMissingFile(t *testing.T) {
	_, err := scene.DecodeGLTF(filepath.Join(t.TempDir(), "missing.glb"))
	assert.Error(t, err)
}
