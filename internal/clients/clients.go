// Package clients talks to the third-party routing and weather services.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	cacheTTL     = 10 * time.Minute
	cacheCleanup = 20 * time.Minute
)

// ServiceError marks an unreachable collaborator or a non-2xx answer.
type ServiceError struct {
	Service string
	Status  int
	Err     error
}

func (e ServiceError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Service, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: unexpected status %d", e.Service, e.Status)
	default:
		return e.Service + ": failed"
	}
}

func (e ServiceError) Unwrap() error { return e.Err }

func newCache() *cache.Cache {
	return cache.New(cacheTTL, cacheCleanup)
}

// getJSON performs a GET bounded by ctx and decodes a 2xx body into dst.
func getJSON(ctx context.Context, hc *http.Client, service, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ServiceError{Service: service, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return ServiceError{Service: service, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ServiceError{Service: service, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return ServiceError{Service: service, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func coordKey(prefix string, parts ...float64) string {
	key := prefix
	for _, p := range parts {
		key += fmt.Sprintf(":%.4f", p)
	}
	return key
}
