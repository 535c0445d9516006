// Package search maintains a Redis-backed inverted index over the product catalog.
package search

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Document is the indexable projection of a product
type Document struct {
	ID         uuid.UUID
	Title      string
	VendorCode string
	Tags       string
}

// Index maintains a full-text lookup over catalog products
type Index interface {
	Index(ctx context.Context, doc Document) error
	Remove(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string) ([]uuid.UUID, error)
	Clear(ctx context.Context) error
}

// Tokenize lowercases the input and splits it into letter/digit runs.
// Tokens shorter than two runes are dropped.
func Tokenize(input string) []string {
	lowered := strings.ToLower(input)
	fields := strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}

// RedisIndex implements Index on top of Redis sets.
// Each token maps to the set of product ids containing it; a per-document
// set records its tokens so reindexing can drop stale entries.
type RedisIndex struct {
	client redis.UniversalClient
	prefix string
	logger *zap.Logger
}

var _ Index = (*RedisIndex)(nil)

// NewRedisIndex creates a Redis-backed search index under the given key prefix
func NewRedisIndex(client redis.UniversalClient, prefix string, logger *zap.Logger) *RedisIndex {
	if prefix == "" {
		prefix = "sync:search"
	}
	return &RedisIndex{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (i *RedisIndex) tokenKey(token string) string {
	return i.prefix + ":token:" + token
}

func (i *RedisIndex) docKey(id uuid.UUID) string {
	return i.prefix + ":doc:" + id.String()
}

// Index adds or refreshes a document
func (i *RedisIndex) Index(ctx context.Context, doc Document) error {
	if err := i.Remove(ctx, doc.ID); err != nil {
		return err
	}

	tokens := Tokenize(doc.Title + " " + doc.VendorCode + " " + doc.Tags)
	if len(tokens) == 0 {
		return nil
	}

	pipe := i.client.TxPipeline()
	for _, token := range tokens {
		pipe.SAdd(ctx, i.tokenKey(token), doc.ID.String())
	}
	members := make([]interface{}, len(tokens))
	for n, token := range tokens {
		members[n] = token
	}
	pipe.SAdd(ctx, i.docKey(doc.ID), members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	return nil
}

// Remove drops a document from the index
func (i *RedisIndex) Remove(ctx context.Context, id uuid.UUID) error {
	tokens, err := i.client.SMembers(ctx, i.docKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to load document tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	pipe := i.client.TxPipeline()
	for _, token := range tokens {
		pipe.SRem(ctx, i.tokenKey(token), id.String())
	}
	pipe.Del(ctx, i.docKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}
	return nil
}

// Search returns ids of documents containing every token of the query
func (i *RedisIndex) Search(ctx context.Context, query string) ([]uuid.UUID, error) {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	keys := make([]string, len(tokens))
	for n, token := range tokens {
		keys[n] = i.tokenKey(token)
	}

	members, err := i.client.SInter(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, member := range members {
		id, err := uuid.Parse(member)
		if err != nil {
			i.logger.Warn("Dropping malformed index entry", zap.String("member", member))
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Clear removes every key under the index prefix
func (i *RedisIndex) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := i.client.Scan(ctx, cursor, i.prefix+":*", 500).Result()
		if err != nil {
			return fmt.Errorf("failed to scan index keys: %w", err)
		}
		if len(keys) > 0 {
			if err := i.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete index keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
