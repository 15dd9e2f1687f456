package scene

import "github.com/Carmen-Shannon/oxy-station/engine/model"

// Handle is a checked reference to a node that scene logic refers to by role. A handle stays
// bound to the attachment it was taken from: once that asset is detached the handle is invalid
// for good, even if the same asset is attached again later.
//
// The zero Handle is invalid.
type Handle struct {
	c       *composer
	assetID string
	role    string
	gen     uint64
}

// Valid reports whether the handle still resolves to a node.
func (h Handle) Valid() bool {
	_, ok := h.Node()
	return ok
}

// Node resolves the handle.
//
// Returns:
//   - *model.Node: the node, nil when invalid
//   - bool: true if the owning asset is still attached
func (h Handle) Node() (*model.Node, bool) {
	if h.c == nil {
		return nil, false
	}
	h.c.mu.RLock()
	defer h.c.mu.RUnlock()
	return h.c.resolve(h)
}

// AssetID returns the asset the handle was taken from, or "" for the zero Handle.
func (h Handle) AssetID() string {
	return h.assetID
}

// Role returns the role name the handle was taken for.
func (h Handle) Role() string {
	return h.role
}
