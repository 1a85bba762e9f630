package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreEnsureCollection(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	spec := &CollectionSpec{Name: "carbone-index", Dimension: 3, Metric: MetricCosine}

	created, err := s.EnsureCollection(ctx, spec)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.EnsureCollection(ctx, spec)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = s.EnsureCollection(ctx, &CollectionSpec{Name: "carbone-index", Dimension: 4})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	ok, err := s.HasCollection(ctx, "carbone-index")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreUpsertRejectsWrongDimension(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.EnsureCollection(ctx, &CollectionSpec{Name: "c", Dimension: 2})
	require.NoError(t, err)

	_, err = s.Upsert(ctx, "c", []*Record{{Embedding: []float32{1, 2, 3}}})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
	assert.Zero(t, s.Len("c"))

	_, err = s.Upsert(ctx, "missing", nil)
	assert.Error(t, err)
	_, err = s.Count(ctx, "missing")
	assert.Error(t, err)
}

func TestMemoryStoreSearch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.EnsureCollection(ctx, &CollectionSpec{Name: "c", Dimension: 2})
	require.NoError(t, err)

	n, err := s.Upsert(ctx, "c", []*Record{
		{DocumentID: "a", ChunkIndex: 0, Content: "east", Embedding: []float32{1, 0}},
		{DocumentID: "a", ChunkIndex: 1, Content: "north", Embedding: []float32{0, 1}},
		{DocumentID: "b", ChunkIndex: 0, Content: "north-east", Embedding: []float32{1, 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	matches, err := s.Search(ctx, "c", []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "east", matches[0].Content)
	assert.Equal(t, "north-east", matches[1].Content)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)

	matches, err = s.Search(ctx, "c", []float32{1, 0}, 5, &Filter{DocumentID: "a"})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.Equal(t, "a", m.DocumentID)
	}
}

func TestMemoryStoreUpsertReplacesSameKey(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.EnsureCollection(ctx, &CollectionSpec{Name: "c", Dimension: 2})
	require.NoError(t, err)

	_, err = s.Upsert(ctx, "c", []*Record{
		{DocumentID: "a", ChunkIndex: 0, Content: "old", Embedding: []float32{1, 0}},
		{DocumentID: "a", ChunkIndex: 1, Content: "keep", Embedding: []float32{0, 1}},
	})
	require.NoError(t, err)
	_, err = s.Upsert(ctx, "c", []*Record{
		{DocumentID: "a", ChunkIndex: 0, Content: "new", Embedding: []float32{1, 0}},
	})
	require.NoError(t, err)

	count, err := s.Count(ctx, "c")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	matches, err := s.Search(ctx, "c", []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "new", matches[0].Content)
}

func TestRecordKey(t *testing.T) {
	assert.Equal(t, "abc:3", (&Record{DocumentID: "abc", ChunkIndex: 3}).Key())
	assert.NotEqual(t, (&Record{DocumentID: "abc", ChunkIndex: 1}).Key(), (&Record{DocumentID: "abc", ChunkIndex: 10}).Key())
}
