// Package milvus wraps the Milvus v2 SDK client with the collection and
// vector operations the report indexer needs.
package milvus

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/kart-io/logger"
	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	milvusopts "github.com/kart-io/sentinel-report/pkg/options/milvus"
)

const (
	// PrimaryField is the VarChar primary key column. Callers supply the keys
	// so that writing the same key again replaces the row.
	PrimaryField = "id"
	// VectorField is the name of the embedding column.
	VectorField = "embedding"

	primaryKeyMaxLen = 128
)

var (
	// ErrDimensionMismatch is returned when an existing collection or an inserted
	// vector does not match the expected dimension.
	ErrDimensionMismatch = errors.New("milvus: vector dimension mismatch")
	// ErrSchemaMismatch is returned when an existing collection was created
	// with a different primary key layout.
	ErrSchemaMismatch = errors.New("milvus: collection schema mismatch")
)

// Client wraps the Milvus SDK client.
type Client struct {
	client *milvusclient.Client
	opts   *milvusopts.Options
	// loaded 记录本连接已加载过的集合
	loaded sync.Map
}

// New creates a new Milvus client.
func New(ctx context.Context, opts *milvusopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("milvus options is nil")
	}
	if opts.Address == "" {
		return nil, fmt.Errorf("milvus address is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DBName:   opts.Database,
		APIKey:   opts.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}

	return &Client{
		client: c,
		opts:   opts,
	}, nil
}

// Close closes the Milvus client connection.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// CollectionSchema defines the schema for a vector collection.
type CollectionSchema struct {
	Name        string
	Description string
	Dimension   int
	Metric      entity.MetricType
	MetaFields  []MetaField
}

// MetaField defines a metadata field in the collection.
type MetaField struct {
	Name     string
	DataType entity.FieldType
	MaxLen   int // VARCHAR only
}

// EnsureCollection creates the collection with an IVF_FLAT index when it does
// not exist yet and loads it. It returns true when this call created it.
//
// Concurrent callers may race on creation. A failed create is followed by an
// existence check, and a collection created by someone else counts as success.
func (c *Client) EnsureCollection(ctx context.Context, schema *CollectionSchema) (bool, error) {
	exists, err := c.HasCollection(ctx, schema.Name)
	if err != nil {
		return false, err
	}
	if exists {
		if err := c.checkSchema(ctx, schema); err != nil {
			return false, err
		}
		return false, c.load(ctx, schema.Name)
	}

	created := true
	if err := c.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(schema.Name, buildSchema(schema))); err != nil {
		exists, checkErr := c.HasCollection(ctx, schema.Name)
		if checkErr != nil || !exists {
			return false, fmt.Errorf("failed to create collection: %w", err)
		}
		logger.Infow("collection created concurrently, reusing it", "collection", schema.Name)
		created = false
	}

	if err := c.ensureIndex(ctx, schema); err != nil {
		return false, err
	}
	return created, c.load(ctx, schema.Name)
}

func buildSchema(schema *CollectionSchema) *entity.Schema {
	collSchema := entity.NewSchema().
		WithName(schema.Name).
		WithDescription(schema.Description).
		WithAutoID(false)

	collSchema.WithField(
		entity.NewField().
			WithName(PrimaryField).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(primaryKeyMaxLen).
			WithIsPrimaryKey(true),
	)
	collSchema.WithField(
		entity.NewField().
			WithName(VectorField).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(schema.Dimension)),
	)

	for _, f := range schema.MetaFields {
		field := entity.NewField().
			WithName(f.Name).
			WithDataType(f.DataType)
		if f.DataType == entity.FieldTypeVarChar && f.MaxLen > 0 {
			field.WithMaxLength(int64(f.MaxLen))
		}
		collSchema.WithField(field)
	}
	return collSchema
}

// HasCollection reports whether the collection exists.
func (c *Client) HasCollection(ctx context.Context, name string) (bool, error) {
	exists, err := c.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	return exists, nil
}

// checkSchema compares the stored primary key type and vector dimension with
// the expected ones.
func (c *Client) checkSchema(ctx context.Context, schema *CollectionSchema) error {
	coll, err := c.client.DescribeCollection(ctx, milvusclient.NewDescribeCollectionOption(schema.Name))
	if err != nil {
		return fmt.Errorf("failed to describe collection: %w", err)
	}
	if coll.Schema == nil {
		return nil
	}
	for _, f := range coll.Schema.Fields {
		if f.PrimaryKey && f.DataType != entity.FieldTypeVarChar {
			return fmt.Errorf("%w: collection %s has a %s primary key, want VarChar", ErrSchemaMismatch, schema.Name, f.DataType.Name())
		}
		if f.Name != VectorField {
			continue
		}
		dim, err := strconv.Atoi(f.TypeParams[entity.TypeParamDim])
		if err != nil {
			return nil
		}
		if dim != schema.Dimension {
			return fmt.Errorf("%w: collection %s has %d, want %d", ErrDimensionMismatch, schema.Name, dim, schema.Dimension)
		}
	}
	return nil
}

func (c *Client) ensureIndex(ctx context.Context, schema *CollectionSchema) error {
	metric := schema.Metric
	if metric == "" {
		metric = entity.COSINE
	}

	idx := index.NewIvfFlatIndex(metric, 128)
	task, err := c.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(schema.Name, VectorField, idx))
	if err == nil {
		err = task.Await(ctx)
	}
	if err != nil {
		// 并发创建时索引可能已由另一方建好
		if _, descErr := c.client.DescribeIndex(ctx, milvusclient.NewDescribeIndexOption(schema.Name, VectorField)); descErr == nil {
			return nil
		}
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

func (c *Client) load(ctx context.Context, name string) error {
	if _, ok := c.loaded.Load(name); ok {
		return nil
	}
	loadTask, err := c.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(name))
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for collection loading: %w", err)
	}
	c.loaded.Store(name, struct{}{})
	return nil
}

// UpsertData represents rows written into a collection.
// Metadata values must be []string or []int64 with one entry per embedding.
type UpsertData struct {
	IDs        []string
	Dimension  int
	Embeddings [][]float32
	Metadata   map[string]any
}

// Upsert writes vectors and metadata keyed by IDs, replacing rows whose key
// already exists, and flushes the collection so the rows are searchable right
// away. It returns the number of rows written.
func (c *Client) Upsert(ctx context.Context, collectionName string, data *UpsertData) (int64, error) {
	if len(data.Embeddings) == 0 {
		return 0, nil
	}
	if len(data.IDs) != len(data.Embeddings) {
		return 0, fmt.Errorf("got %d ids for %d embeddings", len(data.IDs), len(data.Embeddings))
	}
	for i, vec := range data.Embeddings {
		if len(vec) != data.Dimension {
			return 0, fmt.Errorf("%w: vector %d has %d, want %d", ErrDimensionMismatch, i, len(vec), data.Dimension)
		}
	}

	columns := make([]column.Column, 0, len(data.Metadata)+2)
	columns = append(columns,
		column.NewColumnVarChar(PrimaryField, data.IDs),
		column.NewColumnFloatVector(VectorField, data.Dimension, data.Embeddings),
	)

	names := make([]string, 0, len(data.Metadata))
	for name := range data.Metadata {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		switch v := data.Metadata[name].(type) {
		case []string:
			columns = append(columns, column.NewColumnVarChar(name, v))
		case []int64:
			columns = append(columns, column.NewColumnInt64(name, v))
		default:
			return 0, fmt.Errorf("unsupported metadata type: %T for field %s", v, name)
		}
	}

	result, err := c.client.Upsert(ctx, milvusclient.NewColumnBasedInsertOption(collectionName, columns...))
	if err != nil {
		return 0, fmt.Errorf("failed to upsert data: %w", err)
	}

	flushTask, err := c.client.Flush(ctx, milvusclient.NewFlushOption(collectionName))
	if err != nil {
		return 0, fmt.Errorf("failed to flush collection: %w", err)
	}
	if err := flushTask.Await(ctx); err != nil {
		return 0, fmt.Errorf("failed to wait for flush: %w", err)
	}

	return result.UpsertCount, nil
}

// SearchRequest describes a single-vector similarity search.
type SearchRequest struct {
	Collection   string
	Vector       []float32
	TopK         int
	OutputFields []string
	// Filter is a boolean expression, e.g. `document_id == "abc"`.
	Filter string
}

// SearchResult represents a single search result.
type SearchResult struct {
	ID       string
	Score    float32
	Metadata map[string]any
}

// Search performs a vector similarity search. The collection is loaded on the
// first search through this client and reused afterwards.
func (c *Client) Search(ctx context.Context, req *SearchRequest) ([]SearchResult, error) {
	if err := c.load(ctx, req.Collection); err != nil {
		return nil, err
	}

	opt := milvusclient.NewSearchOption(
		req.Collection,
		req.TopK,
		[]entity.Vector{entity.FloatVector(req.Vector)},
	).WithANNSField(VectorField).
		WithSearchParam("nprobe", "16").
		WithOutputFields(req.OutputFields...)
	if req.Filter != "" {
		opt = opt.WithFilter(req.Filter)
	}

	results, err := c.client.Search(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	if len(results) == 0 {
		return []SearchResult{}, nil
	}

	rs := results[0]
	searchResults := make([]SearchResult, 0, rs.ResultCount)
	for i := 0; i < rs.ResultCount; i++ {
		result := SearchResult{
			Score:    rs.Scores[i],
			Metadata: make(map[string]any),
		}
		if idCol, ok := rs.IDs.(*column.ColumnVarChar); ok {
			result.ID = idCol.Data()[i]
		}
		for _, field := range rs.Fields {
			switch col := field.(type) {
			case *column.ColumnVarChar:
				result.Metadata[col.Name()] = col.Data()[i]
			case *column.ColumnInt64:
				result.Metadata[col.Name()] = col.Data()[i]
			}
		}
		searchResults = append(searchResults, result)
	}

	return searchResults, nil
}

// RowCount returns the number of entities in a collection.
func (c *Client) RowCount(ctx context.Context, collectionName string) (int64, error) {
	stats, err := c.client.GetCollectionStats(ctx, milvusclient.NewGetCollectionStatsOption(collectionName))
	if err != nil {
		return 0, fmt.Errorf("failed to get collection stats: %w", err)
	}

	if val, ok := stats["row_count"]; ok {
		return strconv.ParseInt(val, 10, 64)
	}
	return 0, nil
}
