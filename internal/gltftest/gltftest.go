// Package gltftest writes small binary glTF files for tests.
package gltftest

import (
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Part is one cuboid mesh node with a single named material.
type Part struct {
	Node     string
	Material string
	Min, Max [3]float32
}

// Cube returns a part spanning [-h, h] on every axis.
func Cube(node, material string, h float32) Part {
	return Part{Node: node, Material: material, Min: [3]float32{-h, -h, -h}, Max: [3]float32{h, h, h}}
}

// WriteGLB saves a .glb with one root node per part under dir and returns
// its path.
func WriteGLB(t testing.TB, dir, file string, parts ...Part) string {
	t.Helper()
	doc := gltf.NewDocument()
	doc.Scene = gltf.Index(0)
	doc.Scenes = []*gltf.Scene{{Name: "Scene"}}

	for i, p := range parts {
		pos := modeler.WritePosition(doc, cuboid(p.Min, p.Max))
		idx := modeler.WriteIndices(doc, cuboidIndices)
		doc.Materials = append(doc.Materials, &gltf.Material{
			Name: p.Material,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &[4]float64{0.8, 0.8, 0.8, 1},
			},
		})
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name: p.Node + "_mesh",
			Primitives: []*gltf.Primitive{{
				Indices:    gltf.Index(idx),
				Attributes: map[string]int{"POSITION": pos},
				Material:   gltf.Index(i),
			}},
		})
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: p.Node, Mesh: gltf.Index(i)})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, i)
	}

	path := filepath.Join(dir, file)
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
	return path
}

func cuboid(mn, mx [3]float32) [][3]float32 {
	return [][3]float32{
		{mn[0], mn[1], mn[2]}, {mx[0], mn[1], mn[2]}, {mx[0], mx[1], mn[2]}, {mn[0], mx[1], mn[2]},
		{mn[0], mn[1], mx[2]}, {mx[0], mn[1], mx[2]}, {mx[0], mx[1], mx[2]}, {mn[0], mx[1], mx[2]},
	}
}

var cuboidIndices = []uint16{
	0, 2, 1, 0, 3, 2, // back
	4, 5, 6, 4, 6, 7, // front
	0, 1, 5, 0, 5, 4, // bottom
	3, 7, 6, 3, 6, 2, // top
	0, 4, 7, 0, 7, 3, // left
	1, 2, 6, 1, 6, 5, // right
}
