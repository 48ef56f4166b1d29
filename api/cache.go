package api

import (
	"fmt"

	"github.com/golang/groupcache/lru"
	"github.com/jellydator/ttlcache/v3"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/trajkit/trajkit/conceptual"
	"github.com/trajkit/trajkit/params"
	"github.com/trajkit/trajkit/types/track"
)

// LastKnownTTLCache holds the most recent point seen per entity.
// Entries expire so a long-gone entity does not read as current.
var LastKnownTTLCache = ttlcache.New[string, track.Point](
	ttlcache.WithTTL[string, track.Point](params.CacheLastKnownTTL))

func SetLastKnown(id conceptual.EntityID, p track.Point) {
	LastKnownTTLCache.Set(id.String(), p, ttlcache.DefaultTTL)
}

func LastKnown(id conceptual.EntityID) (track.Point, bool) {
	item := LastKnownTTLCache.Get(id.String())
	if item == nil {
		return track.Point{}, false
	}
	return item.Value(), true
}

// NewDedupeLRUFunc returns a predicate that passes a point the first
// time its hash is seen. Re-sent rows are a fact of life with mobile
// uploaders; the LRU bounds how far back we remember.
func NewDedupeLRUFunc() func(track.Point) bool {
	dedupeCache := lru.New(10_000)
	return func(p track.Point) bool {
		hash, err := hashstructure.Hash(p, hashstructure.FormatV2, nil)
		if err != nil {
			return false
		}
		key := fmt.Sprintf("%d", hash)
		if _, ok := dedupeCache.Get(key); ok {
			return false
		}
		dedupeCache.Add(key, true)
		return true
	}
}
