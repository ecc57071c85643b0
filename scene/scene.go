package scene

import (
	"showroom/core"
)

// Scene owns the node graph and the environment it is lit and drawn in.
type Scene struct {
	Root       *Node
	Background core.Color
	Fog        *Fog

	Hemisphere   *HemisphereLight
	Directionals []*DirectionalLight
}

// Fog blends geometry toward Color linearly between Near and Far (view distance).
type Fog struct {
	Color     core.Color
	Near, Far float32
}

func NewScene() *Scene {
	return &Scene{
		Root:       NewNode("Root"),
		Background: core.Color{R: 0, G: 0, B: 0, A: 1},
	}
}

func (s *Scene) AddNode(node *Node) {
	s.Root.AddChild(node)
}

func (s *Scene) AddDirectional(light *DirectionalLight) {
	s.Directionals = append(s.Directionals, light)
}

// ShadowLight returns the first directional light that casts shadows, or nil.
func (s *Scene) ShadowLight() *DirectionalLight {
	for _, l := range s.Directionals {
		if l != nil && l.CastShadow {
			return l
		}
	}
	return nil
}

// GetVisibleNodes returns all nodes with meshes that are visible
func (s *Scene) GetVisibleNodes() []*Node {
	var visible []*Node

	s.Root.Traverse(func(node *Node) {
		if node.Mesh != nil && node.IsVisible() {
			visible = append(visible, node)
		}
	})

	return visible
}
