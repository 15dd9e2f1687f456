package loader

import (
	"fmt"
	"path"
	"strings"

	"github.com/Carmen-Shannon/oxy-station/engine/model"
)

// gltfBackend is the loaderBackend for .gltf and .glb payloads.
type gltfBackend struct{}

var _ loaderBackend = gltfBackend{}

func (gltfBackend) Decode(name string, data []byte) (model.Model, error) {
	parsed, err := parseGLTFBytes(data)
	if err != nil {
		return nil, err
	}
	return importGLTF(parsed, name)
}

// importGLTF converts a validated document into a node tree under a synthetic root.
// The root carries the scene name, or the source base name when the scene is unnamed.
// Triangle geometry stored in the payload is decoded and shared by the nodes referencing it.
func importGLTF(parsed *parsedGLTF, source string) (model.Model, error) {
	doc := parsed.document
	name := gltfModelName(doc, source)
	root := model.NewNode(name)

	geometry := newGLTFGeometry(doc, parsed.bin)
	meshes := make([]model.Mesh, len(doc.Meshes))
	for i, m := range doc.Meshes {
		meshes[i] = model.Mesh{Name: m.Name, Primitives: len(m.Primitives)}
		if len(m.Primitives) > 0 {
			if acc, ok := m.Primitives[0].Attributes["POSITION"]; ok && acc >= 0 && acc < len(doc.Accessors) {
				meshes[i].Vertices = doc.Accessors[acc].Count
			}
		}
		data, err := geometry.mesh(i)
		if err != nil {
			return nil, err
		}
		meshes[i].Data = data
	}

	visited := make([]bool, len(doc.Nodes))
	for _, idx := range gltfRootNodes(doc) {
		n, err := gltfBuildNode(doc, meshes, idx, visited)
		if err != nil {
			return nil, err
		}
		root.Add(n)
	}

	return model.NewModel(
		model.WithName(name),
		model.WithSource(source),
		model.WithRoot(root),
		model.WithMeshes(meshes...),
	), nil
}

func gltfBuildNode(doc *gltfDocument, meshes []model.Mesh, idx int, visited []bool) (*model.Node, error) {
	if visited[idx] {
		return nil, fmt.Errorf("node %d: %w", idx, errNodeCycle)
	}
	visited[idx] = true

	src := doc.Nodes[idx]
	n := model.NewNode(src.Name)

	if src.Matrix != nil {
		n.SetMatrix(*src.Matrix)
	} else {
		if src.Translation != nil {
			n.Position = *src.Translation
		}
		if src.Rotation != nil {
			n.SetQuaternion(*src.Rotation)
		}
		if src.Scale != nil {
			n.Scale = *src.Scale
		}
	}
	if src.Mesh != nil {
		n.Mesh = *src.Mesh
		n.Geometry = meshes[n.Mesh].Data
	}

	for _, c := range src.Children {
		child, err := gltfBuildNode(doc, meshes, c, visited)
		if err != nil {
			return nil, err
		}
		n.Add(child)
	}
	return n, nil
}

// gltfRootNodes returns the roots of the default scene, the first scene, or, for scene-less
// documents, every node that is nobody's child.
func gltfRootNodes(doc *gltfDocument) []int {
	if doc.Scene != nil {
		return doc.Scenes[*doc.Scene].Nodes
	}
	if len(doc.Scenes) > 0 {
		return doc.Scenes[0].Nodes
	}
	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			isChild[c] = true
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

// gltfModelName derives a model name from the default scene or the source path.
func gltfModelName(doc *gltfDocument, source string) string {
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		if name := doc.Scenes[*doc.Scene].Name; name != "" {
			return name
		}
	}
	if source != "" {
		base := path.Base(strings.ReplaceAll(source, "\\", "/"))
		base = strings.TrimSuffix(base, ".lz4")
		return strings.TrimSuffix(base, path.Ext(base))
	}
	return "unnamed_model"
}
