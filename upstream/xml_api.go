package upstream

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-accountsync/core"
)

// XMLAPIClient lists the characters reachable through a legacy key
// credential.
type XMLAPIClient struct {
	baseURL string
	client  *http.Client
}

func NewXMLAPIClient(cfg Config) *XMLAPIClient {
	cfg = cfg.normalized()
	return &XMLAPIClient{baseURL: cfg.XMLAPIBaseURL, client: cfg.httpClient()}
}

type apiKeyInfoDocument struct {
	XMLName xml.Name `xml:"eveapi"`
	Error   *struct {
		Code    int    `xml:"code,attr"`
		Message string `xml:",chardata"`
	} `xml:"error"`
	Rows []struct {
		CharacterID     int64  `xml:"characterID,attr"`
		CharacterName   string `xml:"characterName,attr"`
		CorporationID   int64  `xml:"corporationID,attr"`
		CorporationName string `xml:"corporationName,attr"`
	} `xml:"result>key>rowset>row"`
}

// APIError is an error element returned inside a successful response.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream: xml api error %d: %s", e.Code, e.Message)
}

func (c *XMLAPIClient) ListKeyCharacters(ctx context.Context, keyID int64, verificationCode string) ([]core.KeyCharacter, error) {
	if c == nil {
		return nil, fmt.Errorf("upstream: xml api client is not configured")
	}
	verificationCode = strings.TrimSpace(verificationCode)
	if keyID <= 0 || verificationCode == "" {
		return nil, fmt.Errorf("upstream: key id and verification code are required")
	}
	query := url.Values{}
	query.Set("keyID", strconv.FormatInt(keyID, 10))
	query.Set("vCode", verificationCode)
	endpoint := c.baseURL + "/account/APIKeyInfo.xml.aspx?" + query.Encode()

	body, err := fetch(ctx, c.client, endpoint, "application/xml", nil)
	if err != nil {
		return nil, err
	}
	var doc apiKeyInfoDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("upstream: decode key info: %w", err)
	}
	if doc.Error != nil {
		return nil, &APIError{Code: doc.Error.Code, Message: strings.TrimSpace(doc.Error.Message)}
	}

	out := make([]core.KeyCharacter, 0, len(doc.Rows))
	for _, row := range doc.Rows {
		out = append(out, core.KeyCharacter{
			CharacterID:     row.CharacterID,
			CharacterName:   row.CharacterName,
			CorporationID:   row.CorporationID,
			CorporationName: row.CorporationName,
		})
	}
	return out, nil
}
