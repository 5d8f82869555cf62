// Package middleware decorates a StackStore with encryption and PII masking.
package middleware

import "github.com/aretw0/corebot/pkg/ports"

// Middleware allows wrapping a StackStore to add behavior.
type Middleware func(ports.StackStore) ports.StackStore

// Chain applies mws so that the first one is the outermost.
func Chain(store ports.StackStore, mws ...Middleware) ports.StackStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
