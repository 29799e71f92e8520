//go:build !cgo

package graph

import "fmt"

// openKuzuBackend reports that the Kuzu backend needs a cgo build.
func openKuzuBackend(path string) (Store, error) {
	return nil, fmt.Errorf("kuzu backend at %s requires a cgo-enabled build; use store.backend=memory", path)
}
