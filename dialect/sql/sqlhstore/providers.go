package sqlhstore

import (
	"sync"

	"github.com/basaltdb/basalt/dialect/sql/sqlexpr"
)

// Providers holds the optional capability providers the op set consults.
// Each field may be nil, meaning the capability is absent and the
// corresponding inputs or outputs pass through unwrapped. Providers are
// resolved once per call through the package registry; sqlpg registers a
// full set on import.
type Providers struct {
	// ArrayLiteral wraps a native Go sequence as an SQL array literal
	// before it is used as an operand.
	ArrayLiteral func([]any) sqlexpr.Expr
	// MapLiteral wraps a native Go map as a domain literal (hstore)
	// before it is used as an operand.
	MapLiteral func(map[string]string) sqlexpr.Expr
	// ArrayOps wraps an array-valued result so it exposes the array
	// operation set of the provider.
	ArrayOps func(sqlexpr.Expr) sqlexpr.Expr
}

var (
	providersMu sync.RWMutex
	providers   Providers
)

// RegisterProviders installs the non-nil fields of p into the package
// registry. Typically called from a provider package's init, e.g. by
// importing dialect/sql/sqlpg.
func RegisterProviders(p Providers) {
	providersMu.Lock()
	defer providersMu.Unlock()
	if p.ArrayLiteral != nil {
		providers.ArrayLiteral = p.ArrayLiteral
	}
	if p.MapLiteral != nil {
		providers.MapLiteral = p.MapLiteral
	}
	if p.ArrayOps != nil {
		providers.ArrayOps = p.ArrayOps
	}
}

// ResetProviders clears the registry. Intended for tests.
func ResetProviders() {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers = Providers{}
}

// CurrentProviders returns a snapshot of the registry.
func CurrentProviders() Providers {
	providersMu.RLock()
	defer providersMu.RUnlock()
	return providers
}

// wrapArrayResult applies the array-ops provider to an array-valued result
// when available. Capability propagation: the result, not just the inputs,
// exposes the provider's operation set.
func wrapArrayResult(x sqlexpr.Expr) sqlexpr.Expr {
	if p := CurrentProviders(); p.ArrayOps != nil {
		return p.ArrayOps(x)
	}
	return x
}

// arrayLiteral coerces a native sequence through the array-literal
// provider, or binds it as a single argument when the provider is absent.
func arrayLiteral(vs []any) sqlexpr.Expr {
	if p := CurrentProviders(); p.ArrayLiteral != nil {
		return p.ArrayLiteral(vs)
	}
	return sqlexpr.Value(vs)
}

// mapLiteral coerces a native map through the map-literal provider, or
// binds it as a single argument when the provider is absent.
func mapLiteral(m map[string]string) sqlexpr.Expr {
	if p := CurrentProviders(); p.MapLiteral != nil {
		return p.MapLiteral(m)
	}
	return sqlexpr.Value(m)
}
