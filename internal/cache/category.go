package cache

import (
	"errors"
	"fmt"
	"strings"
)

// Category is the kind of data cached for an entity.
type Category string

const (
	CategoryPC        Category = "pc"
	CategorySteamDeck Category = "steam-deck"
	CategorySummary   Category = "summary"
	CategoryMetadata  Category = "metadata"
	CategoryCounts    Category = "counts"
)

// countsKey is the single shared slot for every category without a per-entity key.
const countsKey = "counts"

// ErrInvalidKey is returned when an entity id cannot be used as a storage key.
var ErrInvalidKey = errors.New("invalid cache key")

// perEntity reports whether the category is stored per entity id.
func (c Category) perEntity() bool {
	switch c {
	case CategoryPC, CategorySteamDeck, CategorySummary, CategoryMetadata:
		return true
	default:
		return false
	}
}

// Key derives the storage key for (entityID, category).
// Known categories map to "{entityID}_{category}", anything else to "counts".
func Key(entityID string, category Category) (string, error) {
	if !category.perEntity() {
		return countsKey, nil
	}
	if entityID == "" || entityID == "." || entityID == ".." ||
		strings.ContainsAny(entityID, `/\`) || strings.ContainsRune(entityID, 0) {
		return "", fmt.Errorf("%w: entity id %q", ErrInvalidKey, entityID)
	}
	return entityID + "_" + string(category), nil
}
