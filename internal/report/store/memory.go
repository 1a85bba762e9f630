package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kart-io/sentinel-report/internal/pkg/textutil"
)

// MemoryStore 是进程内的向量存储，使用暴力余弦检索。
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	spec    CollectionSpec
	records []*Record
	// keys 记录主键到 records 下标的映射
	keys map[string]int
}

// NewMemoryStore 创建内存存储。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

// EnsureCollection 创建或复用集合，已存在时校验维度。
func (s *MemoryStore) EnsureCollection(_ context.Context, spec *CollectionSpec) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[spec.Name]; ok {
		if c.spec.Dimension != spec.Dimension {
			return false, fmt.Errorf("%w: collection %s has %d, want %d", ErrDimensionMismatch, spec.Name, c.spec.Dimension, spec.Dimension)
		}
		return false, nil
	}
	s.collections[spec.Name] = &memoryCollection{spec: *spec, keys: make(map[string]int)}
	return true, nil
}

// HasCollection 判断集合是否存在。
func (s *MemoryStore) HasCollection(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok, nil
}

// Upsert 写入文档块，主键已存在时原位替换。
func (s *MemoryStore) Upsert(_ context.Context, collection string, records []*Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collection]
	if !ok {
		return 0, fmt.Errorf("collection %s not found", collection)
	}
	for i, r := range records {
		if len(r.Embedding) != c.spec.Dimension {
			return 0, fmt.Errorf("%w: vector %d has %d, want %d", ErrDimensionMismatch, i, len(r.Embedding), c.spec.Dimension)
		}
	}
	for _, r := range records {
		key := r.Key()
		if i, ok := c.keys[key]; ok {
			c.records[i] = r
			continue
		}
		c.keys[key] = len(c.records)
		c.records = append(c.records, r)
	}
	return len(records), nil
}

// Search 暴力计算余弦相似度并返回前 topK 条。
func (s *MemoryStore) Search(_ context.Context, collection string, embedding []float32, topK int, filter *Filter) ([]*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %s not found", collection)
	}

	matches := make([]*Match, 0, len(c.records))
	for _, r := range c.records {
		if filter != nil && filter.DocumentID != "" && r.DocumentID != filter.DocumentID {
			continue
		}
		matches = append(matches, &Match{
			DocumentID: r.DocumentID,
			ChunkIndex: r.ChunkIndex,
			Content:    r.Content,
			Score:      float32(textutil.CosineSimilarity(embedding, r.Embedding)),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Count 返回集合中的记录数。
func (s *MemoryStore) Count(_ context.Context, collection string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collection]
	if !ok {
		return 0, fmt.Errorf("collection %s not found", collection)
	}
	return int64(len(c.records)), nil
}

// Len 返回集合中的记录数，集合不存在时返回 0。
func (s *MemoryStore) Len(collection string) int {
	n, _ := s.Count(context.Background(), collection)
	return int(n)
}

// Close 无操作。
func (s *MemoryStore) Close(context.Context) error {
	return nil
}

var _ VectorStore = (*MemoryStore)(nil)
