package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

const jwksCacheTTL = 15 * time.Minute

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

type cachedKeySet struct {
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// JWKSClient fetches and caches the provider's signing keys by kid.
// The HTTP fetch runs through a circuit breaker so a flapping JWKS
// endpoint fails fast instead of stalling every request.
type JWKSClient struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker

	mu    sync.RWMutex
	cache map[string]cachedKeySet // keyed by JWKS URL
}

func NewJWKSClient() *JWKSClient {
	return &JWKSClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "jwks",
			Timeout: 30 * time.Second,
		}),
		cache: map[string]cachedKeySet{},
	}
}

// SigningKey returns the RSA public key for kid, refetching the JWKS
// document when the cache is stale or the kid is unknown (key rotation).
func (c *JWKSClient) SigningKey(ctx context.Context, jwksURL, kid string) (*rsa.PublicKey, error) {
	if kid == "" {
		return nil, errors.New("token header has no kid")
	}
	c.mu.RLock()
	set, ok := c.cache[jwksURL]
	c.mu.RUnlock()
	if ok && time.Since(set.fetchedAt) < jwksCacheTTL {
		if key, ok := set.keys[kid]; ok {
			return key, nil
		}
	}
	set, err := c.refresh(ctx, jwksURL)
	if err != nil {
		return nil, err
	}
	key, ok := set.keys[kid]
	if !ok {
		return nil, fmt.Errorf("no signing key with kid %q", kid)
	}
	return key, nil
}

func (c *JWKSClient) refresh(ctx context.Context, jwksURL string) (cachedKeySet, error) {
	res, err := c.breaker.Execute(func() (any, error) {
		return c.fetch(ctx, jwksURL)
	})
	if err != nil {
		return cachedKeySet{}, fmt.Errorf("jwks fetch: %w", err)
	}
	set := cachedKeySet{keys: res.(map[string]*rsa.PublicKey), fetchedAt: time.Now()}
	c.mu.Lock()
	c.cache[jwksURL] = set
	c.mu.Unlock()
	return set, nil
}

func (c *JWKSClient) fetch(ctx context.Context, jwksURL string) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jwks endpoint returned %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var doc jwksDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	keys := map[string]*rsa.PublicKey{}
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := k.publicKey()
		if err != nil {
			continue // skip malformed entries, others may still verify
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, errors.New("jwks document contains no usable RSA keys")
	}
	return keys, nil
}

func (k jwk) publicKey() (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}
	e := 0
	for _, b := range eb {
		e = e<<8 | int(b)
	}
	if e <= 0 {
		return nil, errors.New("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
}
