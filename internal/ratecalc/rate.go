// Package ratecalc computes the minimum destination amount a STREAM sender
// should demand on a packet, applying slippage and converting between asset
// scales.
package ratecalc

import (
	"math"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// RateStore supplies spot prices for asset codes, e.g. backed by a price
// feed or a connector's quoting API. Price is denominated however the
// store likes as long as it is consistent across codes: Calculator only
// ever takes the ratio of two prices.
type RateStore interface {
	Price(assetCode string) (price float64, ok bool)
}

// Asset describes one side of a conversion.
type Asset struct {
	Code  string
	Scale uint8
}

// Calculator computes per-packet minimum destination amounts.
// Looked-up rates are cached by (src,dst) code pair since a payment issues
// many packets against the same pair in quick succession.
type Calculator struct {
	store RateStore

	mu    sync.Mutex
	cache *lru.Cache[ratePairKey, float64]
}

type ratePairKey struct {
	src, dst string
}

// defaultCacheSize bounds memory for the rate cache; a payment only ever
// touches one or two asset pairs, so this is generous headroom rather than
// a tuned limit.
const defaultCacheSize = 64

// New creates a Calculator backed by store.
func New(store RateStore) (*Calculator, error) {
	cache, err := lru.New[ratePairKey, float64](defaultCacheSize)
	if err != nil {
		return nil, err
	}
	return &Calculator{store: store, cache: cache}, nil
}

// MinDestinationAmount implements the §4.4 algorithm: given a source amount
// in source_scale base units, returns the minimum destination amount in
// dest_scale base units that the sender should demand, after slippage.
// Any unresolvable input (unknown asset, missing rate, non-finite or
// negative effective rate) yields 0 rather than an error, matching the
// spec's "never block the payment on a pricing failure" stance.
func (c *Calculator) MinDestinationAmount(sourceAmount uint64, src, dst Asset, slippage float64) uint64 {
	if dst.Code == "" {
		return 0
	}

	rate, ok := c.lookupRate(src.Code, dst.Code)
	if !ok {
		return 0
	}

	rate *= 1 - slippage
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		return 0
	}

	return convertScale(sourceAmount, src.Scale, dst.Scale, rate)
}

// lookupRate returns price[src]/price[dst], or 1.0 directly when the codes
// match (no lookup needed even for an unconfigured asset).
func (c *Calculator) lookupRate(src, dst string) (float64, bool) {
	if src == dst {
		return 1.0, true
	}

	key := ratePairKey{src: src, dst: dst}

	c.mu.Lock()
	if cached, found := c.cache.Get(key); found {
		c.mu.Unlock()
		return cached, true
	}
	c.mu.Unlock()

	srcPrice, ok := c.store.Price(src)
	if !ok {
		return 0, false
	}
	dstPrice, ok := c.store.Price(dst)
	if !ok || dstPrice == 0 {
		return 0, false
	}

	rate := srcPrice / dstPrice

	c.mu.Lock()
	c.cache.Add(key, rate)
	c.mu.Unlock()

	return rate, true
}

// convertScale converts an amount expressed in srcScale base units to
// destScale base units at the given rate, rounding up.
//
// source_amount is in units of 10^-srcScale; the destination is in units of
// 10^-destScale. The conversion factor is therefore rate * 10^(destScale -
// srcScale), applied in floating point and ceiling-rounded at the end: the
// sender would rather over-demand by a fractional unit than under-collect.
func convertScale(sourceAmount uint64, srcScale, destScale uint8, rate float64) uint64 {
	scaleFactor := math.Pow(10, float64(int(destScale)-int(srcScale)))
	destAmount := float64(sourceAmount) * rate * scaleFactor
	if destAmount <= 0 {
		return 0
	}
	if destAmount > float64(math.MaxUint64) {
		return math.MaxUint64
	}
	return uint64(math.Ceil(destAmount))
}
