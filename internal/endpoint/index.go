package endpoint

import (
	"fmt"

	"golang.org/x/exp/maps"

	"github.com/opennetty/opennetty/internal/protocol"
)

// Index is the read-only (protocol, address) → Endpoint lookup built
// once at startup by NewIndex. It has no update method and no locking;
// it is never modified after NewIndex returns. Capability resolution
// happens once here, not per call.
type Index struct {
	byName    map[string]*Endpoint
	byAddress map[key]*Endpoint
}

// NewIndex validates and indexes endpoints: every name must be unique,
// every endpoint must carry a device binding, an address, or both, and
// every endpoint's effective capability set is resolved up front.
func NewIndex(endpoints []Endpoint) (*Index, error) {
	idx := &Index{
		byName:    make(map[string]*Endpoint, len(endpoints)),
		byAddress: make(map[key]*Endpoint, len(endpoints)),
	}
	for i := range endpoints {
		e := endpoints[i]
		if e.DeviceBrand == "" && e.DeviceModel == "" && e.Address == nil {
			return nil, fmt.Errorf("%w: %q", ErrNoIdentity, e.Name)
		}
		if _, exists := idx.byName[e.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, e.Name)
		}
		e.capabilities = e.resolveCapabilities()

		stored := e
		idx.byName[e.Name] = &stored
		if e.Address != nil {
			idx.byAddress[keyFor(e.Dialect, e.Address)] = &stored
		}
	}
	return idx, nil
}

// Lookup resolves an Endpoint by (protocol, address); ok is false when
// no endpoint is registered for it — the coordinator still passes the
// raw message through to ad-hoc observers in that case.
func (idx *Index) Lookup(dialect protocol.Dialect, addr protocol.Address) (*Endpoint, bool) {
	e, ok := idx.byAddress[keyFor(dialect, addr)]
	return e, ok
}

// ByName resolves an Endpoint by its unique name.
func (idx *Index) ByName(name string) (*Endpoint, bool) {
	e, ok := idx.byName[name]
	return e, ok
}

// Names returns every registered endpoint name, in no particular
// order.
func (idx *Index) Names() []string {
	return maps.Keys(idx.byName)
}
