package core

import (
	"context"

	"github.com/goliatone/go-accountsync/catalog"
)

type CatalogRequest struct {
	Character bool
}

func (s *Service) ListScopes(_ context.Context, req CatalogRequest) ([]catalog.Scope, error) {
	if req.Character {
		return s.catalog.CharacterScopes(), nil
	}
	return s.catalog.CorporationScopes(), nil
}

func (s *Service) ListSyncEndpoints(_ context.Context, req CatalogRequest) ([]catalog.Endpoint, error) {
	if req.Character {
		return s.catalog.CharacterEndpoints(), nil
	}
	return s.catalog.CorporationEndpoints(), nil
}
