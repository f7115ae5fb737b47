// Package catalog lists the upstream scopes an account can delegate and the
// synchronization endpoints that consume them.
//
// Scope order is significant: a scope's position is its bit in an access
// mask, so new scopes are only ever appended.
package catalog

import (
	"fmt"
	"strings"
)

type Scope struct {
	Name        string `json:"scope"`
	Description string `json:"description"`
	Character   bool   `json:"character"`
	Corporation bool   `json:"corporation"`
}

type Endpoint struct {
	Name        string `json:"name"`
	Scope       string `json:"scope"`
	Description string `json:"description"`
	Character   bool   `json:"isChar"`
}

type Catalog struct {
	scopes    []Scope
	index     map[string]int
	endpoints []Endpoint
}

// New builds a catalog and rejects duplicate scope names and endpoints that
// reference unknown scopes.
func New(scopes []Scope, endpoints []Endpoint) (*Catalog, error) {
	c := &Catalog{
		scopes:    make([]Scope, 0, len(scopes)),
		index:     make(map[string]int, len(scopes)),
		endpoints: make([]Endpoint, 0, len(endpoints)),
	}
	for _, scope := range scopes {
		scope.Name = strings.TrimSpace(scope.Name)
		if scope.Name == "" {
			return nil, fmt.Errorf("catalog: scope name is required")
		}
		if _, exists := c.index[scope.Name]; exists {
			return nil, fmt.Errorf("catalog: duplicate scope %q", scope.Name)
		}
		c.index[scope.Name] = len(c.scopes)
		c.scopes = append(c.scopes, scope)
	}
	for _, endpoint := range endpoints {
		endpoint.Name = strings.TrimSpace(endpoint.Name)
		if endpoint.Name == "" {
			return nil, fmt.Errorf("catalog: endpoint name is required")
		}
		if _, ok := c.index[endpoint.Scope]; !ok {
			return nil, fmt.Errorf("catalog: endpoint %q references unknown scope %q", endpoint.Name, endpoint.Scope)
		}
		c.endpoints = append(c.endpoints, endpoint)
	}
	return c, nil
}

func MustNew(scopes []Scope, endpoints []Endpoint) *Catalog {
	c, err := New(scopes, endpoints)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.scopes)
}

// Index returns the bit position of a scope.
func (c *Catalog) Index(name string) (int, bool) {
	if c == nil {
		return 0, false
	}
	idx, ok := c.index[strings.TrimSpace(name)]
	return idx, ok
}

func (c *Catalog) Scope(idx int) (Scope, bool) {
	if c == nil || idx < 0 || idx >= len(c.scopes) {
		return Scope{}, false
	}
	return c.scopes[idx], true
}

func (c *Catalog) All() []Scope {
	if c == nil {
		return nil
	}
	return append([]Scope(nil), c.scopes...)
}

func (c *Catalog) CharacterScopes() []Scope {
	return c.filterScopes(func(s Scope) bool { return s.Character })
}

func (c *Catalog) CorporationScopes() []Scope {
	return c.filterScopes(func(s Scope) bool { return s.Corporation })
}

func (c *Catalog) Endpoints() []Endpoint {
	if c == nil {
		return nil
	}
	return append([]Endpoint(nil), c.endpoints...)
}

func (c *Catalog) CharacterEndpoints() []Endpoint {
	return c.filterEndpoints(true)
}

func (c *Catalog) CorporationEndpoints() []Endpoint {
	return c.filterEndpoints(false)
}

func (c *Catalog) Endpoint(name string) (Endpoint, bool) {
	if c == nil {
		return Endpoint{}, false
	}
	name = strings.TrimSpace(name)
	for _, endpoint := range c.endpoints {
		if endpoint.Name == name {
			return endpoint, true
		}
	}
	return Endpoint{}, false
}

func (c *Catalog) filterScopes(keep func(Scope) bool) []Scope {
	if c == nil {
		return nil
	}
	out := make([]Scope, 0, len(c.scopes))
	for _, scope := range c.scopes {
		if keep(scope) {
			out = append(out, scope)
		}
	}
	return out
}

func (c *Catalog) filterEndpoints(character bool) []Endpoint {
	if c == nil {
		return nil
	}
	out := make([]Endpoint, 0, len(c.endpoints))
	for _, endpoint := range c.endpoints {
		if endpoint.Character == character {
			out = append(out, endpoint)
		}
	}
	return out
}
