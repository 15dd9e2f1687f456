package assets

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyStarted is returned when registering or starting after Start.
	ErrAlreadyStarted = errors.New("asset loading already started")
	// ErrDuplicateAsset is returned when an asset ID is registered twice.
	ErrDuplicateAsset = errors.New("duplicate asset")
	// ErrMaterialsUnavailable is wrapped when the material catalog could not be built, so no
	// asset can be dressed.
	ErrMaterialsUnavailable = errors.New("material catalog unavailable")
)

// LoadError tags a fetch or decode failure with the asset it belongs to.
type LoadError struct {
	AssetID string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("asset %s: %v", e.AssetID, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// MissingNodeError reports a node an asset was expected to contain but does not.
type MissingNodeError struct {
	AssetID string
	Node    string
}

func (e *MissingNodeError) Error() string {
	return fmt.Sprintf("asset %s: node %q not found", e.AssetID, e.Node)
}
