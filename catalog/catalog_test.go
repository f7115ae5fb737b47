package catalog

import "testing"

func TestDefaultCatalogPartitionsScopes(t *testing.T) {
	c := Default()
	if c.Len() == 0 {
		t.Fatalf("expected default scopes")
	}
	char := c.CharacterScopes()
	corp := c.CorporationScopes()
	if len(char)+len(corp) != c.Len() {
		t.Fatalf("expected every scope to be character or corporation, got %d+%d of %d", len(char), len(corp), c.Len())
	}
	for _, scope := range char {
		if scope.Description == "" {
			t.Fatalf("expected description for %q", scope.Name)
		}
	}
}

func TestIndexFollowsDeclarationOrder(t *testing.T) {
	c := MustNew([]Scope{{Name: "a", Character: true}, {Name: "b", Corporation: true}}, nil)
	if idx, ok := c.Index("b"); !ok || idx != 1 {
		t.Fatalf("expected b at bit 1, got %d (%t)", idx, ok)
	}
	if _, ok := c.Index("missing"); ok {
		t.Fatalf("expected unknown scope lookup to fail")
	}
	scope, ok := c.Scope(0)
	if !ok || scope.Name != "a" {
		t.Fatalf("expected scope a at 0, got %+v", scope)
	}
}

func TestNewRejectsDuplicatesAndUnknownEndpointScopes(t *testing.T) {
	if _, err := New([]Scope{{Name: "a"}, {Name: "a"}}, nil); err == nil {
		t.Fatalf("expected duplicate scope error")
	}
	if _, err := New([]Scope{{Name: "a"}}, []Endpoint{{Name: "X", Scope: "b"}}); err == nil {
		t.Fatalf("expected unknown endpoint scope error")
	}
}

func TestEndpointsSplitByCharacterFlag(t *testing.T) {
	c := Default()
	for _, endpoint := range c.CharacterEndpoints() {
		if !endpoint.Character {
			t.Fatalf("expected character endpoint, got %+v", endpoint)
		}
	}
	if len(c.CharacterEndpoints())+len(c.CorporationEndpoints()) != len(c.Endpoints()) {
		t.Fatalf("expected endpoint partition to cover all endpoints")
	}
	if _, ok := c.Endpoint("CHAR_ASSETS"); !ok {
		t.Fatalf("expected CHAR_ASSETS endpoint")
	}
}
