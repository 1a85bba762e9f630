package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/kart-io/sentinel-report/pkg/component/milvus"
)

const (
	fieldDocumentID = "document_id"
	fieldChunkIndex = "chunk_index"
	fieldContent    = "content"
)

var outputFields = []string{fieldDocumentID, fieldChunkIndex, fieldContent}

// MilvusStore 实现基于 Milvus 的向量存储。
type MilvusStore struct {
	client *milvus.Client
}

// NewMilvusStore 创建 Milvus 存储实例。
func NewMilvusStore(client *milvus.Client) *MilvusStore {
	return &MilvusStore{client: client}
}

// EnsureCollection 创建或复用 Milvus 集合。
func (s *MilvusStore) EnsureCollection(ctx context.Context, spec *CollectionSpec) (bool, error) {
	metric := entity.COSINE
	if spec.Metric != "" && spec.Metric != MetricCosine {
		return false, fmt.Errorf("unsupported metric %q", spec.Metric)
	}

	return s.client.EnsureCollection(ctx, &milvus.CollectionSchema{
		Name:        spec.Name,
		Description: fmt.Sprintf("sentinel-report document chunks (%s/%s)", spec.Cloud, spec.Region),
		Dimension:   spec.Dimension,
		Metric:      metric,
		MetaFields: []milvus.MetaField{
			{Name: fieldDocumentID, DataType: entity.FieldTypeVarChar, MaxLen: 64},
			{Name: fieldChunkIndex, DataType: entity.FieldTypeInt64},
			{Name: fieldContent, DataType: entity.FieldTypeVarChar, MaxLen: 65535},
		},
	})
}

// HasCollection 判断集合是否存在。
func (s *MilvusStore) HasCollection(ctx context.Context, name string) (bool, error) {
	return s.client.HasCollection(ctx, name)
}

// Upsert 按主键批量写入文档块。
func (s *MilvusStore) Upsert(ctx context.Context, collection string, records []*Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	dim := len(records[0].Embedding)
	keys := make([]string, len(records))
	embeddings := make([][]float32, len(records))
	docIDs := make([]string, len(records))
	indexes := make([]int64, len(records))
	contents := make([]string, len(records))
	for i, r := range records {
		keys[i] = r.Key()
		embeddings[i] = r.Embedding
		docIDs[i] = r.DocumentID
		indexes[i] = int64(r.ChunkIndex)
		contents[i] = r.Content
	}

	n, err := s.client.Upsert(ctx, collection, &milvus.UpsertData{
		IDs:        keys,
		Dimension:  dim,
		Embeddings: embeddings,
		Metadata: map[string]any{
			fieldDocumentID: docIDs,
			fieldChunkIndex: indexes,
			fieldContent:    contents,
		},
	})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Count 返回集合的行数统计。
func (s *MilvusStore) Count(ctx context.Context, collection string) (int64, error) {
	return s.client.RowCount(ctx, collection)
}

// Search 执行向量相似度搜索。
func (s *MilvusStore) Search(ctx context.Context, collection string, embedding []float32, topK int, filter *Filter) ([]*Match, error) {
	req := &milvus.SearchRequest{
		Collection:   collection,
		Vector:       embedding,
		TopK:         topK,
		OutputFields: outputFields,
	}
	if filter != nil && filter.DocumentID != "" {
		req.Filter = fieldDocumentID + " == " + strconv.Quote(filter.DocumentID)
	}

	results, err := s.client.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	matches := make([]*Match, 0, len(results))
	for _, r := range results {
		m := &Match{Score: r.Score}
		if v, ok := r.Metadata[fieldDocumentID].(string); ok {
			m.DocumentID = v
		}
		if v, ok := r.Metadata[fieldChunkIndex].(int64); ok {
			m.ChunkIndex = int(v)
		}
		if v, ok := r.Metadata[fieldContent].(string); ok {
			m.Content = v
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Close 关闭 Milvus 连接。
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

var _ VectorStore = (*MilvusStore)(nil)
