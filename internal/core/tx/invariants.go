package tx

import "sync"

// Invariant checks the staged state of a successful transaction before it commits.
type Invariant func(ctx *ApplyContext) error

var (
	invariantsMu sync.RWMutex
	invariants   []namedInvariant
)

type namedInvariant struct {
	name  string
	check Invariant
}

// RegisterInvariant adds a check the engine runs after every successful apply.
func RegisterInvariant(name string, check Invariant) {
	invariantsMu.Lock()
	defer invariantsMu.Unlock()
	invariants = append(invariants, namedInvariant{name: name, check: check})
}

func checkInvariants(ctx *ApplyContext) error {
	invariantsMu.RLock()
	defer invariantsMu.RUnlock()
	for _, inv := range invariants {
		if err := inv.check(ctx); err != nil {
			return Fail(TecINVARIANT_FAILED, "%s: %v", inv.name, err)
		}
	}
	return nil
}
