package assets

import (
	"maps"

	"github.com/Carmen-Shannon/oxy-station/engine/manifest"
)

// Group names the scene group an asset is attached under.
type Group string

const (
	// GroupVehicle assets hover and can be moved as one.
	GroupVehicle Group = manifest.GroupVehicle
	// GroupEnvironment assets are static scenery.
	GroupEnvironment Group = manifest.GroupEnvironment
)

// Assignment decides which material each node of an asset receives. Uniform, when set, is
// applied to every node first; Nodes then overrides individual nodes by exact name.
type Assignment struct {
	Uniform string
	Nodes   map[string]string
}

// RoleSpec declares that an asset must (or, when Optional, may) contain a node that scene logic
// refers to by role.
type RoleSpec struct {
	Role     string
	Node     string
	Optional bool
}

// Descriptor is the immutable declaration of one model asset.
type Descriptor struct {
	ID         string
	Source     string
	Group      Group
	Assignment Assignment
	Roles      []RoleSpec
}

// ItemID is the progress key a model asset is reported under.
func ItemID(assetID string) string {
	return "model:" + assetID
}

// DescriptorsFromManifest converts manifest asset records into descriptors.
//
// Parameters:
//   - records: the manifest assets
//
// Returns:
//   - []Descriptor: one descriptor per record, in order
func DescriptorsFromManifest(records []manifest.Asset) []Descriptor {
	descs := make([]Descriptor, 0, len(records))
	for _, a := range records {
		d := Descriptor{
			ID:     a.ID,
			Source: a.Source,
			Group:  Group(a.Group),
			Assignment: Assignment{
				Uniform: a.Uniform,
				Nodes:   maps.Clone(a.Nodes),
			},
		}
		for _, r := range a.Roles {
			d.Roles = append(d.Roles, RoleSpec{Role: r.Role, Node: r.Node, Optional: r.Optional})
		}
		descs = append(descs, d)
	}
	return descs
}
