package model

// model is the implementation of the Model interface.
type model struct {
	name   string
	source string
	root   *Node
	meshes []Mesh
}

// Model is a loaded asset: a node hierarchy under a single root plus the opaque meshes its nodes
// reference. It is produced by the Loader and attached to the scene as a unit.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Source retrieves the path or URL the model was loaded from.
	//
	// Returns:
	//   - string: the source
	Source() string

	// Root retrieves the root node of the hierarchy.
	//
	// Returns:
	//   - *Node: the root node, never nil
	Root() *Node

	// Meshes retrieves the meshes referenced by Node.Mesh.
	//
	// Returns:
	//   - []Mesh: the meshes
	Meshes() []Mesh

	// Find returns the first node with the given name, searching depth-first from the root.
	//
	// Parameters:
	//   - name: the exact node name
	//
	// Returns:
	//   - *Node: the node, or nil when absent
	Find(name string) *Node
}

var _ Model = &model{}

// NewModel creates a new Model configured with the provided options. A model without an explicit
// root gets an empty root node named after the model.
//
// Parameters:
//   - options: variadic list of ModelBuilderOption functions to configure the model
//
// Returns:
//   - Model: a new Model instance
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	if m.root == nil {
		m.root = NewNode(m.name)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Source() string {
	return m.source
}

func (m *model) Root() *Node {
	return m.root
}

func (m *model) Meshes() []Mesh {
	return m.meshes
}

func (m *model) Find(name string) *Node {
	return m.root.FindByName(name)
}
