package upstream

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-accountsync/core"
)

// ESIClient resolves character affiliations and corporation names through
// the public REST API.
type ESIClient struct {
	baseURL string
	client  *http.Client
}

func NewESIClient(cfg Config) *ESIClient {
	cfg = cfg.normalized()
	return &ESIClient{baseURL: cfg.ESIBaseURL, client: cfg.httpClient()}
}

type characterPayload struct {
	CorporationID int64 `json:"corporation_id"`
}

type corporationPayload struct {
	Name            string `json:"name"`
	CorporationName string `json:"corporation_name"`
}

func (c *ESIClient) ResolveCharacter(ctx context.Context, characterID int64) (core.CharacterAffiliation, error) {
	if c == nil {
		return core.CharacterAffiliation{}, fmt.Errorf("upstream: esi client is not configured")
	}
	if characterID <= 0 {
		return core.CharacterAffiliation{}, fmt.Errorf("upstream: character id must be positive")
	}
	var payload characterPayload
	url := fmt.Sprintf("%s/characters/%d/", c.baseURL, characterID)
	if err := fetchJSON(ctx, c.client, url, nil, &payload); err != nil {
		return core.CharacterAffiliation{}, err
	}
	if payload.CorporationID <= 0 {
		return core.CharacterAffiliation{}, fmt.Errorf("upstream: character %d has no corporation", characterID)
	}
	return core.CharacterAffiliation{CharacterID: characterID, CorporationID: payload.CorporationID}, nil
}

func (c *ESIClient) ResolveCorporation(ctx context.Context, corporationID int64) (core.CorporationInfo, error) {
	if c == nil {
		return core.CorporationInfo{}, fmt.Errorf("upstream: esi client is not configured")
	}
	if corporationID <= 0 {
		return core.CorporationInfo{}, fmt.Errorf("upstream: corporation id must be positive")
	}
	var payload corporationPayload
	url := fmt.Sprintf("%s/corporations/%d/", c.baseURL, corporationID)
	if err := fetchJSON(ctx, c.client, url, nil, &payload); err != nil {
		return core.CorporationInfo{}, err
	}
	name := strings.TrimSpace(firstNonEmpty(payload.Name, payload.CorporationName))
	if name == "" {
		return core.CorporationInfo{}, fmt.Errorf("upstream: corporation %d has no name", corporationID)
	}
	return core.CorporationInfo{CorporationID: corporationID, Name: name}, nil
}
