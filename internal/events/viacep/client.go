package viacep

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/go-redis/redis/v8"

	"tickethub/internal/apperr"
	"tickethub/internal/logger"
)

var cepDigits = regexp.MustCompile(`\D`)

// Address is the subset of the ViaCep payload we care about.
type Address struct {
	CEP          string `json:"cep"`
	Street       string `json:"logradouro"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
	Erro         bool   `json:"erro,omitempty"`
}

// Cache stores resolved addresses keyed by normalized CEP.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisCache backs Cache with a redis instance.
type RedisCache struct {
	Client *redis.Client
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return r.Client.Get(ctx, key).Result()
}

func (r *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.Client.Set(ctx, key, value, ttl).Err()
}

type Client struct {
	baseURL string
	client  *http.Client
	cache   Cache
	ttl     time.Duration
	logger  *logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, cache Cache, ttl time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		cache:   cache,
		ttl:     ttl,
		logger:  log,
	}
}

// NormalizeCEP strips everything but digits from a CEP.
func NormalizeCEP(cep string) string {
	return cepDigits.ReplaceAllString(cep, "")
}

// Resolve looks up the address for a CEP, consulting the cache first.
// The cache is best effort: a cache failure never fails the lookup.
func (c *Client) Resolve(ctx context.Context, cep string) (*Address, error) {
	normalized := NormalizeCEP(cep)
	if len(normalized) != 8 {
		return nil, apperr.New(apperr.InvalidInput, cep, "CEP must have exactly 8 digits")
	}

	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, cacheKey(normalized)); err == nil {
			var addr Address
			if err := json.Unmarshal([]byte(cached), &addr); err == nil {
				return &addr, nil
			}
		}
	}

	addr, err := c.fetch(ctx, normalized)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if raw, err := json.Marshal(addr); err == nil {
			if err := c.cache.Set(ctx, cacheKey(normalized), string(raw), c.ttl); err != nil && c.logger != nil {
				c.logger.LogGateway("viacep", fmt.Sprintf("Failed to cache CEP %s: %v", normalized, err))
			}
		}
	}

	return addr, nil
}

func (c *Client) fetch(ctx context.Context, cep string) (*Address, error) {
	url := fmt.Sprintf("%s/ws/%s/json/", c.baseURL, cep)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.New(apperr.Unavailable, cep, "failed to build ViaCep request: %v", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.New(apperr.Unavailable, cep, "ViaCep request failed: %v", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.New(apperr.Unavailable, cep, "ViaCep returned status %d", resp.StatusCode)
	}

	var addr Address
	if err := json.NewDecoder(resp.Body).Decode(&addr); err != nil {
		return nil, apperr.New(apperr.Unavailable, cep, "failed to decode ViaCep response: %v", err)
	}

	if addr.Erro {
		return nil, apperr.New(apperr.InvalidInput, cep, "CEP %s does not exist", cep)
	}

	addr.CEP = cep
	return &addr, nil
}

func cacheKey(cep string) string {
	return "viacep:" + cep
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
