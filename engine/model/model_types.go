package model

import (
	"math"

	"github.com/Carmen-Shannon/oxy-station/common"
	"github.com/Carmen-Shannon/oxy-station/engine/renderer/material"
)

// Mesh is a geometry reference from the source file.
type Mesh struct {
	// Name is the mesh identifier from the source file.
	Name string

	// Primitives is the number of draw primitives in the mesh.
	Primitives int

	// Vertices is the vertex count of the first primitive, 0 when unknown.
	Vertices int

	// Data is the decoded triangle geometry of every primitive, nil when the source carries
	// it in a form the loader does not decode.
	Data *MeshData
}

// MeshData is decoded triangle geometry. Attributes are tightly packed per vertex: three
// floats for positions and normals, two for texture coordinates. Normals and UVs are empty when
// the source has none.
type MeshData struct {
	Positions []float32
	Normals   []float32
	UVs       []float32
	Indices   []uint32
}

// VertexCount returns the number of vertices.
func (d *MeshData) VertexCount() int {
	if d == nil {
		return 0
	}
	return len(d.Positions) / 3
}

// Append merges another primitive into d, offsetting its indices. Attributes missing from
// either side are padded so the layout stays consistent.
//
// Parameters:
//   - o: the primitive to append
func (d *MeshData) Append(o *MeshData) {
	base := uint32(d.VertexCount())
	n := o.VertexCount()

	d.Normals = padAttribute(d.Normals, d.VertexCount(), 3, o.Normals, n)
	d.UVs = padAttribute(d.UVs, d.VertexCount(), 2, o.UVs, n)
	d.Positions = append(d.Positions, o.Positions...)
	for _, i := range o.Indices {
		d.Indices = append(d.Indices, base+i)
	}
}

// padAttribute appends b to a, zero-filling whichever side lacks data when the other has some.
func padAttribute(a []float32, aCount, width int, b []float32, bCount int) []float32 {
	if len(a) == 0 && len(b) == 0 {
		return a
	}
	if len(a) == 0 {
		a = make([]float32, aCount*width)
	}
	if len(b) == 0 {
		return append(a, make([]float32, bCount*width)...)
	}
	return append(a, b...)
}

// Node is one element of a model's scene hierarchy. Nodes are not safe for concurrent mutation;
// the scene composer serializes access.
type Node struct {
	// Name is the node name from the source file. Names are not guaranteed unique.
	Name string

	// Position is the translation relative to the parent.
	Position [3]float32

	// Rotation holds Euler angles in radians, applied in Y, X, Z order.
	Rotation [3]float32

	// Scale is the scale factor along each axis.
	Scale [3]float32

	// Mesh is the index into the owning model's meshes, or -1 for a transform-only node.
	Mesh int

	// Geometry is the decoded data of the referenced mesh, shared by every node that
	// references it. Nil when the mesh was not decoded.
	Geometry *MeshData

	// Material is the surface assigned to the node, nil until assigned.
	Material material.Material

	// Visible hides the node and its subtree when false.
	Visible bool

	parent   *Node
	children []*Node
}

// NewNode creates a visible, identity-transformed node without geometry.
//
// Parameters:
//   - name: the node name
//
// Returns:
//   - *Node: the node
func NewNode(name string) *Node {
	return &Node{
		Name:    name,
		Scale:   [3]float32{1, 1, 1},
		Mesh:    -1,
		Visible: true,
	}
}

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the direct children. The slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

// Add attaches child to n, detaching it from any previous parent first.
//
// Parameters:
//   - child: the node to attach; adding n to itself is ignored
func (n *Node) Add(child *Node) {
	if child == nil || child == n {
		return
	}
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches child from n.
//
// Parameters:
//   - child: the node to detach
//
// Returns:
//   - bool: true if child was a direct child of n
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Traverse calls fn for n and every descendant in depth-first pre-order.
//
// Parameters:
//   - fn: the visitor
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// FindByName returns the first node named name in depth-first pre-order, including n itself.
//
// Parameters:
//   - name: the exact node name
//
// Returns:
//   - *Node: the node, or nil when absent
func (n *Node) FindByName(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.children {
		if found := c.FindByName(name); found != nil {
			return found
		}
	}
	return nil
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	count := 0
	n.Traverse(func(*Node) { count++ })
	return count
}

// LocalMatrix writes the node's transform relative to its parent.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
func (n *Node) LocalMatrix(out []float32) {
	common.BuildModelMatrix(out, n.Position, n.Rotation, n.Scale)
}

// WorldMatrix writes the node's transform relative to the root of its tree.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
func (n *Node) WorldMatrix(out []float32) {
	n.LocalMatrix(out)
	var parent [16]float32
	for p := n.parent; p != nil; p = p.parent {
		p.LocalMatrix(parent[:])
		common.Mul4(out, parent[:], out)
	}
}

// SetQuaternion sets Rotation from a unit quaternion (x, y, z, w), decomposed in the same
// Y, X, Z order LocalMatrix applies.
//
// Parameters:
//   - q: the quaternion
func (n *Node) SetQuaternion(q [4]float32) {
	x, y, z, w := float64(q[0]), float64(q[1]), float64(q[2]), float64(q[3])
	n.Rotation = eulerYXZ(
		1-2*(y*y+z*z), 2*(x*z+w*y),
		2*(x*y+w*z), 1-2*(x*x+z*z), 2*(y*z-w*x),
		2*(x*z-w*y), 1-2*(x*x+y*y),
	)
}

// SetMatrix decomposes a column-major affine matrix into Position, Rotation and Scale.
// Shear is discarded.
//
// Parameters:
//   - m: the matrix
func (n *Node) SetMatrix(m [16]float32) {
	col := func(i int) [3]float64 {
		return [3]float64{float64(m[i*4]), float64(m[i*4+1]), float64(m[i*4+2])}
	}
	length := func(v [3]float64) float64 {
		return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	}
	c0, c1, c2 := col(0), col(1), col(2)
	sx, sy, sz := length(c0), length(c1), length(c2)

	n.Position = [3]float32{m[12], m[13], m[14]}
	n.Scale = [3]float32{float32(sx), float32(sy), float32(sz)}
	if sx == 0 || sy == 0 || sz == 0 {
		n.Rotation = [3]float32{}
		return
	}
	n.Rotation = eulerYXZ(
		c0[0]/sx, c2[0]/sz,
		c0[1]/sx, c1[1]/sy, c2[1]/sz,
		c0[2]/sx, c2[2]/sz,
	)
}

// eulerYXZ extracts Euler angles from the row-major rotation matrix elements it needs.
func eulerYXZ(m11, m13, m21, m22, m23, m31, m33 float64) [3]float32 {
	rx := math.Asin(-math.Max(-1, math.Min(1, m23)))
	var ry, rz float64
	if math.Abs(m23) < 0.9999999 {
		ry = math.Atan2(m13, m33)
		rz = math.Atan2(m21, m22)
	} else {
		ry = math.Atan2(-m31, m11)
	}
	return [3]float32{float32(rx), float32(ry), float32(rz)}
}
