package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/storefront/syncengine/internal/domain/catalog"
	"github.com/storefront/syncengine/internal/domain/shared"
	domainsync "github.com/storefront/syncengine/internal/domain/sync"
)

// attributeGroup is the group all sync-owned attributes are filed under
const attributeGroup = "sync"

// indexFieldTitles names the ERP index-field slots carried on every item
var indexFieldTitles = map[string]string{
	"field1": "Index field 1",
	"field2": "Index field 2",
	"field3": "Index field 3",
	"field4": "Index field 4",
}

// AttributeRegistry resolves attribute definitions by stable address,
// creating them on first use. Lookups are cached for the life of the
// registry, which matches one reconciliation pass or one process.
type AttributeRegistry struct {
	repo  catalog.AttributeRepository
	cache map[string]uuid.UUID
}

// NewAttributeRegistry creates a registry over the given repository
func NewAttributeRegistry(repo catalog.AttributeRepository) *AttributeRegistry {
	return &AttributeRegistry{
		repo:  repo,
		cache: make(map[string]uuid.UUID),
	}
}

// Ensure finds or creates an attribute definition and returns its id
func (r *AttributeRegistry) Ensure(ctx context.Context, address, title, group string, typ catalog.AttributeType) (uuid.UUID, error) {
	if id, ok := r.cache[address]; ok {
		return id, nil
	}

	existing, err := r.repo.FindByAddress(ctx, address)
	if err == nil {
		r.cache[address] = existing.ID
		return existing.ID, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return uuid.Nil, fmt.Errorf("attribute lookup failed: %w", err)
	}

	attribute, err := catalog.NewAttribute(address, title, group, typ)
	if err != nil {
		return uuid.Nil, err
	}
	if err := r.repo.Create(ctx, attribute); err != nil {
		return uuid.Nil, fmt.Errorf("attribute create failed: %w", err)
	}

	r.cache[address] = attribute.ID
	return attribute.ID, nil
}

// ProductAttributes maps one product snapshot's index fields and tags onto
// attribute values keyed by attribute id. Index fields become STRING
// attributes under fixed addresses; each semicolon-delimited tag in field5
// becomes a BOOLEAN attribute flagged "1".
func (r *AttributeRegistry) ProductAttributes(ctx context.Context, snapshot domainsync.ProductSnapshot) (map[uuid.UUID]string, error) {
	values := make(map[uuid.UUID]string)

	fields := map[string]string{
		"field1": snapshot.Field1,
		"field2": snapshot.Field2,
		"field3": snapshot.Field3,
		"field4": snapshot.Field4,
	}
	for address, value := range fields {
		if value == "" {
			continue
		}
		id, err := r.Ensure(ctx, address, indexFieldTitles[address], attributeGroup, catalog.AttributeTypeString)
		if err != nil {
			return nil, err
		}
		values[id] = value
	}

	for _, tag := range strings.Split(snapshot.Field5, ";") {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		address := "tag-" + domainsync.Slugify(tag)
		if address == "tag-" {
			continue
		}
		id, err := r.Ensure(ctx, address, tag, attributeGroup, catalog.AttributeTypeBoolean)
		if err != nil {
			return nil, err
		}
		values[id] = "1"
	}

	return values, nil
}
