package assets

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-station/engine/model"
	"github.com/Carmen-Shannon/oxy-station/engine/renderer/material"
)

// MaterialSource resolves material names. material.Catalog satisfies it.
type MaterialSource interface {
	Get(name string) (material.Material, error)
}

// ApplyAssignment dresses a loaded model. The uniform material goes on every node; each named
// override then goes on every node with exactly that name. Applying the same assignment twice
// yields the same result.
//
// Parameters:
//   - assetID: the owning asset, used to tag errors
//   - root: the model root
//   - a: the assignment
//   - materials: the material lookup
//
// Returns:
//   - error: *MissingNodeError when an override names a node the model lacks, or the lookup
//     error for an unknown material
func ApplyAssignment(assetID string, root *model.Node, a Assignment, materials MaterialSource) error {
	if a.Uniform != "" {
		mat, err := materials.Get(a.Uniform)
		if err != nil {
			return err
		}
		root.Traverse(func(n *model.Node) {
			n.Material = mat
		})
	}

	names := make([]string, 0, len(a.Nodes))
	for name := range a.Nodes {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		mat, err := materials.Get(a.Nodes[name])
		if err != nil {
			return err
		}
		matched := false
		root.Traverse(func(n *model.Node) {
			if n.Name == name {
				n.Material = mat
				matched = true
			}
		})
		if !matched {
			return &MissingNodeError{AssetID: assetID, Node: name}
		}
	}
	return nil
}

// ResolveRoles builds the role lookup table of an asset. Absent optional roles are left out of
// the table; absent required roles fail.
//
// Parameters:
//   - assetID: the owning asset, used to tag errors
//   - root: the model root
//   - roles: the declared roles
//
// Returns:
//   - map[string]*model.Node: role name to node
//   - error: *MissingNodeError for the first absent required role
func ResolveRoles(assetID string, root *model.Node, roles []RoleSpec) (map[string]*model.Node, error) {
	table := make(map[string]*model.Node, len(roles))
	for _, r := range roles {
		n := root.FindByName(r.Node)
		if n == nil {
			if r.Optional {
				continue
			}
			return nil, &MissingNodeError{AssetID: assetID, Node: r.Node}
		}
		table[r.Role] = n
	}
	return table, nil
}
