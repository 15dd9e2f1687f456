package model

// ModelBuilderOption is a function that configures a model instance during construction.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithSource is an option builder that records where the model was loaded from.
//
// Parameters:
//   - source: the path or URL
//
// Returns:
//   - ModelBuilderOption: a function that applies the source option to a model
func WithSource(source string) ModelBuilderOption {
	return func(m *model) {
		m.source = source
	}
}

// WithRoot is an option builder that sets the root node of the hierarchy.
//
// Parameters:
//   - root: the root node
//
// Returns:
//   - ModelBuilderOption: a function that applies the root option to a model
func WithRoot(root *Node) ModelBuilderOption {
	return func(m *model) {
		m.root = root
	}
}

// WithMeshes is an option builder that sets the meshes referenced by nodes.
//
// Parameters:
//   - meshes: the mesh list
//
// Returns:
//   - ModelBuilderOption: a function that applies the meshes option to a model
func WithMeshes(meshes ...Mesh) ModelBuilderOption {
	return func(m *model) {
		m.meshes = meshes
	}
}
