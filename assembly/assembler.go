// Package assembly places loaded models into a scene graph and applies
// their material rules.
package assembly

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"showroom/asset"
	"showroom/core"
	"showroom/scene"
)

// ErrAlreadyAttached is returned when a descriptor is attached a second time.
var ErrAlreadyAttached = errors.New("assembly: descriptor already attached")

// Assembler attaches loaded models to one scene. It is not safe for
// concurrent use; call it from the goroutine that owns the scene.
type Assembler struct {
	scene    *scene.Scene
	attached map[string]*scene.Node
}

func New(s *scene.Scene) *Assembler {
	return &Assembler{scene: s, attached: make(map[string]*scene.Node)}
}

// Attach wraps root in a node named after d that carries exactly d's
// placement, normalizes root when d asks for it, turns on shadows for every
// mesh, applies d's material rules in order and adds the wrapper to the
// scene. It returns the wrapper.
func (a *Assembler) Attach(root *scene.Node, d *asset.Descriptor) (*scene.Node, error) {
	if root == nil {
		return nil, fmt.Errorf("attach %q: nil node", d.Name)
	}
	if _, ok := a.attached[d.Name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyAttached, d.Name)
	}

	wrapper := scene.NewNode(d.Name)
	wrapper.SetTransform(d.Transform.Transform())
	if d.Normalize != nil {
		Normalize(root, d.Normalize.MaxDimension)
	}
	wrapper.AddChild(root)

	root.Traverse(func(n *scene.Node) {
		if n.Mesh != nil {
			n.CastShadow = true
			n.ReceiveShadow = true
		}
	})
	ApplyRules(root, d.MaterialRules)

	a.scene.AddNode(wrapper)
	a.attached[d.Name] = wrapper
	return wrapper, nil
}

// Attached returns the wrapper node of a previously attached descriptor.
func (a *Assembler) Attached(name string) (*scene.Node, bool) {
	n, ok := a.attached[name]
	return n, ok
}

// Count is the number of attached descriptors.
func (a *Assembler) Count() int { return len(a.attached) }

// ApplyRules applies rules in order to every mesh under root whose material
// name contains the rule's Match (case-insensitive); later rules win on the
// same field. It returns the number of (rule, mesh) matches.
func ApplyRules(root *scene.Node, rules []asset.MaterialRule) int {
	matched := 0
	for _, r := range rules {
		for _, n := range root.MeshesByMaterial(r.Match) {
			apply(n, r.Override)
			matched++
		}
	}
	return matched
}

func apply(n *scene.Node, o asset.Override) {
	m := n.Mesh.Material
	if o.BaseColor != nil {
		m.BaseColor = *o.BaseColor
	}
	if o.Roughness != nil {
		m.Roughness = *o.Roughness
	}
	if o.Metalness != nil {
		m.Metalness = *o.Metalness
	}
	if o.Opacity != nil {
		m.Opacity = *o.Opacity
		m.Transparent = m.Opacity < 1
	}
	if o.EnvMapIntensity != nil {
		m.EnvMapIntensity = *o.EnvMapIntensity
	}
	if o.Visible != nil {
		n.Visible = *o.Visible
	}
}

// Normalize recentres root so its bounding box is centred on x=0, z=0 and
// rests on y=0, and scales it uniformly by min(1, maxDim/largest edge).
// root's own transform is replaced. It returns the scale factor applied.
func Normalize(root *scene.Node, maxDim float32) float32 {
	box := root.BoundingBox()
	if box.IsEmpty() {
		return 1
	}
	k := float32(1)
	if size := box.MaxDimension(); size > maxDim && size > 0 {
		k = maxDim / size
	}
	c := box.Center()
	root.SetTransform(core.Transform{
		Position: mgl32.Vec3{-c[0] * k, -box.Min[1] * k, -c[2] * k},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{k, k, k},
	})
	return k
}

// Recolor overwrites the base colour of every mesh under root whose
// material name contains target (case-insensitive) and returns how many
// meshes changed.
func Recolor(root *scene.Node, target string, c core.Color) int {
	if strings.TrimSpace(target) == "" {
		return 0
	}
	return ApplyRules(root, []asset.MaterialRule{{Match: target, Override: asset.Override{BaseColor: &c}}})
}
