package accesstoken

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
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	defaultKeyTTL       = 5 * time.Minute
	defaultKeyGrace     = 15 * time.Minute
	defaultFetchTimeout = 5 * time.Second
)

var defaultRetryDelays = []time.Duration{200 * time.Millisecond, 800 * time.Millisecond}

// keyring resolves RS256 verification keys by kid from a JWKS endpoint.
// A key set older than ttl is still served during grace while a detached
// refresh replaces it.
type keyring struct {
	source       string
	client       *http.Client
	ttl          time.Duration
	grace        time.Duration
	fetchTimeout time.Duration
	retryDelays  []time.Duration
	now          func() time.Time

	current atomic.Pointer[keySnapshot]
	fetches singleflight.Group
}

type keySnapshot struct {
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// find reports the key for kid and whether it is past ttl. A snapshot past
// ttl+grace yields nothing.
func (s *keySnapshot) find(kid string, now time.Time, ttl, grace time.Duration) (*rsa.PublicKey, bool) {
	if s == nil {
		return nil, false
	}
	key := s.keys[kid]
	if key == nil {
		return nil, false
	}
	age := now.Sub(s.fetchedAt)
	switch {
	case age < ttl:
		return key, false
	case age < ttl+grace:
		return key, true
	default:
		return nil, false
	}
}

func newKeyring(source string, client *http.Client) *keyring {
	return &keyring{
		source:       source,
		client:       client,
		ttl:          defaultKeyTTL,
		grace:        defaultKeyGrace,
		fetchTimeout: defaultFetchTimeout,
		retryDelays:  defaultRetryDelays,
		now:          time.Now,
	}
}

func (k *keyring) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if kid == "" {
		return nil, errors.New("token header has no kid")
	}
	if key, stale := k.current.Load().find(kid, k.now(), k.ttl, k.grace); key != nil {
		if stale {
			go k.refreshDetached()
		}
		return key, nil
	}
	snap, err := k.refresh(ctx)
	if err != nil {
		return nil, err
	}
	if key := snap.keys[kid]; key != nil {
		return key, nil
	}
	return nil, fmt.Errorf("no signing key for kid %q", kid)
}

func (k *keyring) refreshDetached() {
	ctx, cancel := context.WithTimeout(context.Background(), k.fetchTimeout)
	defer cancel()
	_, _ = k.refresh(ctx)
}

// refresh shares one fetch between concurrent callers. The fetch runs on its
// own deadline, so a caller giving up early does not cancel it for others.
func (k *keyring) refresh(ctx context.Context) (*keySnapshot, error) {
	ch := k.fetches.DoChan("keys", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.Background(), k.fetchTimeout)
		defer cancel()
		keys, err := k.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		snap := &keySnapshot{keys: keys, fetchedAt: k.now()}
		k.current.Store(snap)
		return snap, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*keySnapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (k *keyring) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	keys, err := k.fetchOnce(ctx)
	for _, delay := range k.retryDelays {
		if err == nil {
			return keys, nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		keys, err = k.fetchOnce(ctx)
	}
	return keys, err
}

func (k *keyring) fetchOnce(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.source, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := k.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch key set: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch key set: status %d", resp.StatusCode)
	}
	return decodeKeySet(resp.Body)
}

type keySetDocument struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg,omitempty"`
	Use string `json:"use,omitempty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// decodeKeySet keeps RSA signing keys that carry a kid and drops the rest.
func decodeKeySet(r io.Reader) (map[string]*rsa.PublicKey, error) {
	var doc keySetDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode key set: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, entry := range doc.Keys {
		if entry.Kty != "RSA" || entry.Kid == "" || (entry.Use != "" && entry.Use != "sig") {
			continue
		}
		if entry.Alg != "" && entry.Alg != AlgorithmRS256 {
			continue
		}
		if pub, err := entry.publicKey(); err == nil {
			keys[entry.Kid] = pub
		}
	}
	if len(keys) == 0 {
		return nil, errors.New("key set has no usable RS256 keys")
	}
	return keys, nil
}

func (j jwk) publicKey() (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil || len(n) == 0 {
		return nil, errors.New("bad modulus")
	}
	e, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil || len(e) == 0 || len(e) > 4 {
		return nil, errors.New("bad exponent")
	}
	exponent := int(new(big.Int).SetBytes(e).Int64())
	if exponent < 3 || exponent%2 == 0 {
		return nil, errors.New("bad exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: exponent}, nil
}
