package upstream

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-accountsync/core"
	"golang.org/x/oauth2"
)

// AuthServer drives the authorization code flow against the single sign-on
// server.
type AuthServer struct {
	cfg    Config
	client *http.Client
	now    func() time.Time
}

func NewAuthServer(cfg Config) (*AuthServer, error) {
	cfg = cfg.normalized()
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("upstream: client id is required")
	}
	return &AuthServer{cfg: cfg, client: cfg.httpClient(), now: time.Now}, nil
}

func (s *AuthServer) oauthConfig(callbackURL string, scopes []string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   s.cfg.AuthURL,
			TokenURL:  s.cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		RedirectURL: strings.TrimSpace(callbackURL),
		Scopes:      append([]string(nil), scopes...),
	}
}

func (s *AuthServer) AuthorizationURL(_ context.Context, req core.AuthorizationRequest) (string, error) {
	if s == nil {
		return "", fmt.Errorf("upstream: auth server is not configured")
	}
	if strings.TrimSpace(req.State) == "" {
		return "", fmt.Errorf("upstream: state is required")
	}
	if strings.TrimSpace(req.CallbackURL) == "" {
		return "", fmt.Errorf("upstream: callback url is required")
	}
	return s.oauthConfig(req.CallbackURL, req.Scopes).AuthCodeURL(req.State), nil
}

func (s *AuthServer) ExchangeCode(ctx context.Context, req core.CodeExchange) (core.TokenPair, error) {
	if s == nil {
		return core.TokenPair{}, fmt.Errorf("upstream: auth server is not configured")
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return core.TokenPair{}, fmt.Errorf("upstream: authorization code is required")
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	token, err := s.oauthConfig(req.CallbackURL, nil).Exchange(ctx, code)
	if err != nil {
		return core.TokenPair{}, fmt.Errorf("upstream: exchange code: %w", err)
	}

	expiresIn := time.Duration(token.ExpiresIn) * time.Second
	if expiresIn <= 0 && !token.Expiry.IsZero() {
		expiresIn = token.Expiry.Sub(s.now())
	}
	return core.TokenPair{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.Type(),
		ExpiresIn:    expiresIn,
	}, nil
}

type verifyPayload struct {
	CharacterID   int64  `json:"CharacterID"`
	CharacterName string `json:"CharacterName"`
}

// VerifyCharacter asks the sign-on server which character the access token
// was issued to.
func (s *AuthServer) VerifyCharacter(ctx context.Context, accessToken string) (core.CharacterInfo, error) {
	if s == nil {
		return core.CharacterInfo{}, fmt.Errorf("upstream: auth server is not configured")
	}
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return core.CharacterInfo{}, fmt.Errorf("upstream: access token is required")
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+accessToken)

	var payload verifyPayload
	if err := fetchJSON(ctx, s.client, s.cfg.VerifyURL, header, &payload); err != nil {
		return core.CharacterInfo{}, err
	}
	if payload.CharacterID <= 0 || strings.TrimSpace(payload.CharacterName) == "" {
		return core.CharacterInfo{}, fmt.Errorf("upstream: verify response is missing character data")
	}
	return core.CharacterInfo{
		CharacterID:   payload.CharacterID,
		CharacterName: strings.TrimSpace(payload.CharacterName),
	}, nil
}
