package provider

import "fmt"

// Registry holds all configured providers and allows lookup by name.
// It performs no auth logic itself.
type Registry struct {
	login      map[string]OAuthProvider
	connectors map[string]Connector
}

// NewRegistry registers the given sign-in providers by name.
// Provider names must be unique.
func NewRegistry(list ...OAuthProvider) *Registry {
	m := make(map[string]OAuthProvider)
	for _, p := range list {
		m[p.Name()] = p
	}
	return &Registry{
		login:      m,
		connectors: make(map[string]Connector),
	}
}

// AddConnector registers a data-provider connector by name.
func (r *Registry) AddConnector(c Connector) {
	r.connectors[c.Name()] = c
}

// Get returns the sign-in provider by name or an error if not registered.
func (r *Registry) Get(name string) (OAuthProvider, error) {
	p, ok := r.login[name]
	if !ok {
		return nil, fmt.Errorf("unknown oauth provider: %s", name)
	}
	return p, nil
}

// Connector returns the data-provider connector by name or an error if
// not configured.
func (r *Registry) Connector(name string) (Connector, error) {
	c, ok := r.connectors[name]
	if !ok {
		return nil, fmt.Errorf("provider not configured: %s", name)
	}
	return c, nil
}
