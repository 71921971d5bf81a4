package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rpger/content-extractor/constants"
)

// cached decorates a Provider with an LRU verdict cache keyed by
// (operation, content hash, options). Identical calls return the prior
// verdict without touching the backend.
type cached struct {
	inner Provider
	lru   *lru.Cache[string, any]
}

func newCached(inner Provider, size int) (*cached, error) {
	if size <= 0 {
		size = 1024
	}
	c, err := lru.New[string, any](size)
	if err != nil {
		return nil, err
	}
	return &cached{inner: inner, lru: c}, nil
}

func (c *cached) Name() constants.Provider { return c.inner.Name() }

func (c *cached) Identify(ctx context.Context, req IdentifyRequest, opts Options) (IdentifyResult, error) {
	opts = opts.normalized(OpIdentify)
	if !opts.Cache {
		return c.inner.Identify(ctx, req, opts)
	}
	key := cacheKey(c.inner.Name(), OpIdentify, opts, req.Text, string(req.Kind))
	if v, ok := c.lru.Get(key); ok {
		return v.(IdentifyResult), nil
	}
	out, err := c.inner.Identify(ctx, req, opts)
	if err == nil {
		c.lru.Add(key, out)
	}
	return out, err
}

func (c *cached) Categorize(ctx context.Context, req CategorizeRequest, opts Options) (CategorizeResult, error) {
	opts = opts.normalized(OpCategorize)
	if !opts.Cache {
		return c.inner.Categorize(ctx, req, opts)
	}
	key := cacheKey(c.inner.Name(), OpCategorize, opts, req.Text, req.Game, req.Edition, strings.Join(req.Allowed, ","))
	if v, ok := c.lru.Get(key); ok {
		return v.(CategorizeResult), nil
	}
	out, err := c.inner.Categorize(ctx, req, opts)
	if err == nil {
		c.lru.Add(key, out)
	}
	return out, err
}

func (c *cached) ExtractCharacters(ctx context.Context, req CharactersRequest, opts Options) (CharactersResult, error) {
	opts = opts.normalized(OpCharacters)
	if !opts.Cache {
		return c.inner.ExtractCharacters(ctx, req, opts)
	}
	key := cacheKey(c.inner.Name(), OpCharacters, opts, req.Text, string(req.Pass), strings.Join(req.Prior, ","))
	if v, ok := c.lru.Get(key); ok {
		return v.(CharactersResult), nil
	}
	out, err := c.inner.ExtractCharacters(ctx, req, opts)
	if err == nil {
		c.lru.Add(key, out)
	}
	return out, err
}

func cacheKey(provider constants.Provider, op Operation, opts Options, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%s|%s|%s|t%.2f|m%d",
		provider, op, hex.EncodeToString(h.Sum(nil)), opts.Temperature, opts.MaxTokens)
}

var _ Provider = (*cached)(nil)
