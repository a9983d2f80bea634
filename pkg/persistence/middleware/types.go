package middleware

import "github.com/aretw0/scriptor/pkg/ports"

// Middleware allows wrapping a ProfileStore to add behavior.
type Middleware func(ports.ProfileStore) ports.ProfileStore

// Chain wraps store with mws. The first middleware is the outermost, so it
// sees a profile first on Save and last on Load.
func Chain(store ports.ProfileStore, mws ...Middleware) ports.ProfileStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
