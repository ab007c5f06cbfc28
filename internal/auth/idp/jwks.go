package idp

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"
)

// JWK is one identity-provider public key as published in the JWKS document.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid,omitempty"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
	N   string `json:"n,omitempty"`
	E   string `json:"e,omitempty"`
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

type JWKS struct {
	Keys []JWK `json:"keys"`
}

// KeyProvider resolves a token's kid to a verification key. Injectable so
// tests can substitute a static key set.
type KeyProvider interface {
	Key(ctx context.Context, kid string) (crypto.PublicKey, error)
}

// HTTPProvider fetches the provider's JWKS over HTTPS and caches the parsed
// keys for a TTL. A lookup for an unknown kid forces a refresh, which covers
// provider key rotation without restarts. The cache is time-boxed and safe to
// recompute; it carries no correctness weight.
type HTTPProvider struct {
	url    string
	ttl    time.Duration
	client *http.Client

	mu        sync.Mutex
	keys      map[string]crypto.PublicKey
	fetchedAt time.Time
}

func NewHTTPProvider(jwksURL string, ttl time.Duration) *HTTPProvider {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &HTTPProvider{
		url:    jwksURL,
		ttl:    ttl,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPProvider) Key(ctx context.Context, kid string) (crypto.PublicKey, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stale := p.keys == nil || time.Since(p.fetchedAt) >= p.ttl
	if !stale {
		if k, ok := p.keys[kid]; ok {
			return k, nil
		}
		// Unknown kid on a fresh cache: likely rotation, refetch.
	}
	if err := p.refreshLocked(ctx); err != nil {
		return nil, err
	}
	k, ok := p.keys[kid]
	if !ok {
		return nil, fmt.Errorf("jwks: no key %q", kid)
	}
	return k, nil
}

func (p *HTTPProvider) refreshLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks fetch: %s", resp.Status)
	}
	var set JWKS
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return err
	}
	keys, err := ParseJWKS(set)
	if err != nil {
		return err
	}
	p.keys = keys
	p.fetchedAt = time.Now()
	return nil
}

// ParseJWKS converts a JWKS document into kid-indexed public keys. Keys with
// unsupported types are skipped rather than failing the whole set.
func ParseJWKS(set JWKS) (map[string]crypto.PublicKey, error) {
	keys := make(map[string]crypto.PublicKey, len(set.Keys))
	for _, jwk := range set.Keys {
		pub, err := jwk.PublicKey()
		if err != nil {
			continue
		}
		keys[jwk.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("jwks: no usable keys")
	}
	return keys, nil
}

// PublicKey decodes the JWK into a crypto.PublicKey (RSA or EC).
func (j JWK) PublicKey() (crypto.PublicKey, error) {
	switch j.Kty {
	case "RSA":
		n, err := b64BigInt(j.N)
		if err != nil {
			return nil, err
		}
		e, err := b64BigInt(j.E)
		if err != nil {
			return nil, err
		}
		return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
	case "EC":
		var curve elliptic.Curve
		switch j.Crv {
		case "P-256":
			curve = elliptic.P256()
		case "P-384":
			curve = elliptic.P384()
		case "P-521":
			curve = elliptic.P521()
		default:
			return nil, fmt.Errorf("jwk: unsupported curve %q", j.Crv)
		}
		x, err := b64BigInt(j.X)
		if err != nil {
			return nil, err
		}
		y, err := b64BigInt(j.Y)
		if err != nil {
			return nil, err
		}
		return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
	default:
		return nil, fmt.Errorf("jwk: unsupported kty %q", j.Kty)
	}
}

func b64BigInt(s string) (*big.Int, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

// StaticProvider serves a fixed key set; used in tests and offline setups.
type StaticProvider struct {
	Keys map[string]crypto.PublicKey
}

func (p StaticProvider) Key(_ context.Context, kid string) (crypto.PublicKey, error) {
	k, ok := p.Keys[kid]
	if !ok {
		return nil, fmt.Errorf("jwks: no key %q", kid)
	}
	return k, nil
}
