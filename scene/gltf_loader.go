package scene

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"showroom/core"
)

// DecodeGLTF opens a .glb or .gltf file and returns a single root node
// holding the file's default scene. Geometry, metallic-roughness materials,
// base-colour textures and the node hierarchy are populated; GPU upload is
// left to the renderer. Safe to call from any goroutine.
func DecodeGLTF(path string) (*Node, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	dir := filepath.Dir(path)
	log := slog.Default().With("asset", path)

	// ── 1. Textures ───────────────────────────────────────────────────────────
	texCache := make([]*Texture, len(doc.Textures))
	for i, gt := range doc.Textures {
		if gt.Source == nil || *gt.Source >= len(doc.Images) {
			continue
		}
		tex, err := decodeGLTFImage(doc, *gt.Source, dir)
		if err != nil {
			log.Warn("gltf texture skipped", "texture", i, "err", err)
			continue
		}
		texCache[i] = tex
	}

	// ── 2. Materials ─────────────────────────────────────────────────────────
	matCache := make([]*Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		mat := DefaultMaterial()
		mat.Name = gm.Name
		if mat.Name == "" {
			mat.Name = fmt.Sprintf("material_%d", i)
		}
		mat.DoubleSided = gm.DoubleSided

		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			mat.BaseColor = core.Color{
				R: float32(cf[0]), G: float32(cf[1]),
				B: float32(cf[2]), A: float32(cf[3]),
			}
			mat.Opacity = float32(cf[3])
			mat.Roughness = float32(pbr.RoughnessFactorOrDefault())
			mat.Metalness = float32(pbr.MetallicFactorOrDefault())
			if pbr.BaseColorTexture != nil {
				idx := pbr.BaseColorTexture.Index
				if idx < len(texCache) && texCache[idx] != nil {
					mat.BaseColorTexture = texCache[idx]
				}
			}
		}
		mat.Transparent = gm.AlphaMode == gltf.AlphaBlend
		matCache[i] = mat
	}

	// ── 3. Mesh primitives ────────────────────────────────────────────────────
	meshPrims := make([][]*Mesh, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				log.Warn("gltf primitive skipped: not triangles", "mesh", mi, "primitive", pi)
				continue
			}
			m, err := loadGLTFPrimitive(doc, gm.Name, pi, prim)
			if err != nil {
				log.Warn("gltf primitive skipped", "mesh", mi, "primitive", pi, "err", err)
				continue
			}
			if prim.Material != nil && *prim.Material < len(matCache) {
				m.Material = matCache[*prim.Material]
			} else {
				m.Material = DefaultMaterial()
			}
			meshPrims[mi] = append(meshPrims[mi], m)
		}
	}

	// ── 4. Nodes ──────────────────────────────────────────────────────────────
	nodes := make([]*Node, len(doc.Nodes))
	for i, gn := range doc.Nodes {
		name := gn.Name
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		n := NewNode(name)

		t := gn.TranslationOrDefault()
		sc := gn.ScaleOrDefault()
		r := gn.RotationOrDefault() // [x, y, z, w]
		n.SetTransform(core.Transform{
			Position: mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])},
			Rotation: mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}},
			Scale:    mgl32.Vec3{float32(sc[0]), float32(sc[1]), float32(sc[2])},
		})

		if gn.Mesh != nil && *gn.Mesh < len(meshPrims) {
			prims := meshPrims[*gn.Mesh]
			switch len(prims) {
			case 0:
				// no geometry
			case 1:
				n.Mesh = prims[0]
			default:
				// Multiple primitives → one child node per primitive
				for pi, p := range prims {
					child := NewNode(fmt.Sprintf("%s_prim%d", name, pi))
					child.Mesh = p
					n.AddChild(child)
				}
			}
		}
		nodes[i] = n
	}

	for i, gn := range doc.Nodes {
		for _, childIdx := range gn.Children {
			if childIdx < len(nodes) && childIdx != i {
				nodes[i].AddChild(nodes[childIdx])
			}
		}
	}

	// ── 5. Root ───────────────────────────────────────────────────────────────
	root := NewNode(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		for _, rootIdx := range doc.Scenes[*doc.Scene].Nodes {
			if rootIdx < len(nodes) {
				root.AddChild(nodes[rootIdx])
			}
		}
	} else {
		// No default scene: collect all parentless nodes
		for _, n := range nodes {
			if n.Parent == nil {
				root.AddChild(n)
			}
		}
	}
	return root, nil
}

// loadGLTFPrimitive converts one glTF mesh primitive into a Mesh.
func loadGLTFPrimitive(doc *gltf.Document, meshName string, primIdx int, prim *gltf.Primitive) (*Mesh, error) {
	name := fmt.Sprintf("%s_p%d", meshName, primIdx)
	if meshName == "" {
		name = fmt.Sprintf("prim_%d", primIdx)
	}

	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		normals, _ = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		uvs, _ = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
	}

	verts := make([]core.Vertex, len(positions))
	for i, p := range positions {
		v := core.Vertex{Position: mgl32.Vec3{p[0], p[1], p[2]}}
		if i < len(normals) {
			v.Normal = mgl32.Vec3(normals[i])
		}
		if i < len(uvs) {
			v.UV = mgl32.Vec2(uvs[i])
		}
		verts[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	}
	if len(normals) < len(positions) {
		computeNormals(verts, indices)
	}

	return CreateMeshFromData(name, verts, indices), nil
}

// computeNormals fills smooth vertex normals from area-weighted face normals.
func computeNormals(verts []core.Vertex, indices []uint32) {
	for i := range verts {
		verts[i].Normal = mgl32.Vec3{}
	}
	tri := func(a, b, c uint32) {
		if int(a) >= len(verts) || int(b) >= len(verts) || int(c) >= len(verts) {
			return
		}
		pa, pb, pc := verts[a].Position, verts[b].Position, verts[c].Position
		n := pb.Sub(pa).Cross(pc.Sub(pa))
		verts[a].Normal = verts[a].Normal.Add(n)
		verts[b].Normal = verts[b].Normal.Add(n)
		verts[c].Normal = verts[c].Normal.Add(n)
	}
	if len(indices) > 0 {
		for i := 0; i+2 < len(indices); i += 3 {
			tri(indices[i], indices[i+1], indices[i+2])
		}
	} else {
		for i := 0; i+2 < len(verts); i += 3 {
			tri(uint32(i), uint32(i+1), uint32(i+2))
		}
	}
	for i := range verts {
		if verts[i].Normal.Len() > 0 {
			verts[i].Normal = verts[i].Normal.Normalize()
		} else {
			verts[i].Normal = mgl32.Vec3{0, 1, 0}
		}
	}
}

func decodeGLTFImage(doc *gltf.Document, imgIdx int, dir string) (*Texture, error) {
	img := doc.Images[imgIdx]
	name := img.Name
	if name == "" {
		name = fmt.Sprintf("gltf_img_%d", imgIdx)
	}

	var raw []byte
	var err error
	switch {
	case img.BufferView != nil:
		// Binary GLB: image data lives in a buffer view
		raw, err = modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
	case img.IsEmbeddedResource():
		raw, err = img.MarshalData()
	case img.URI != "":
		raw, err = os.ReadFile(filepath.Join(dir, img.URI))
	default:
		return nil, fmt.Errorf("image %d has no data", imgIdx)
	}
	if err != nil {
		return nil, fmt.Errorf("image %d: %w", imgIdx, err)
	}
	return decodeImageBytes(name, raw)
}
