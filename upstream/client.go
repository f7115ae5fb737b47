package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

func fetch(ctx context.Context, client HTTPDoer, url string, accept string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("upstream: build request: %w", err)
	}
	req.Header.Set("Accept", accept)
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream: request %s: %w", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodyBytes))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	if resp.ContentLength > maxResponseBodyBytes {
		return nil, fmt.Errorf("upstream: response from %s exceeds %d bytes", url, maxResponseBodyBytes)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("upstream: read response: %w", err)
	}
	if len(body) > maxResponseBodyBytes {
		return nil, fmt.Errorf("upstream: response from %s exceeds %d bytes", url, maxResponseBodyBytes)
	}
	return body, nil
}

func fetchJSON(ctx context.Context, client HTTPDoer, url string, header http.Header, out any) error {
	body, err := fetch(ctx, client, url, "application/json", header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("upstream: decode %s: %w", url, err)
	}
	return nil
}
