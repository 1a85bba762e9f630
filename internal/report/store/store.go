package store

import (
	"context"
	"strconv"

	"github.com/kart-io/sentinel-report/pkg/component/milvus"
)

// MetricCosine 是集合使用的相似度度量。
const MetricCosine = "cosine"

// ErrDimensionMismatch 表示向量维度与集合维度不一致。
var ErrDimensionMismatch = milvus.ErrDimensionMismatch

// CollectionSpec 描述一个向量集合。
type CollectionSpec struct {
	// Name 集合名称。
	Name string
	// Dimension 向量维度。
	Dimension int
	// Metric 相似度度量，目前只支持 cosine。
	Metric string
	// Cloud 和 Region 记录托管基础设施位置。
	Cloud  string
	Region string
}

// Record 是写入集合的一个文档块。
type Record struct {
	DocumentID string
	ChunkIndex int
	Content    string
	Embedding  []float32
}

// Key 返回记录主键，同一文档同一分块的键相同，重复写入会覆盖。
func (r *Record) Key() string {
	return r.DocumentID + ":" + strconv.Itoa(r.ChunkIndex)
}

// Match 是一条检索结果，Score 为余弦相似度。
type Match struct {
	DocumentID string
	ChunkIndex int
	Content    string
	Score      float32
}

// Filter 限定检索范围，nil 或零值表示不过滤。
type Filter struct {
	DocumentID string
}

// VectorStore 定义向量存储接口。
type VectorStore interface {
	// EnsureCollection 集合不存在时创建，存在时校验维度。返回本次调用是否创建了集合。
	EnsureCollection(ctx context.Context, spec *CollectionSpec) (bool, error)

	// HasCollection 判断集合是否存在。
	HasCollection(ctx context.Context, name string) (bool, error)

	// Upsert 按 Record.Key 批量写入文档块，已存在的键被替换，返回写入条数。
	Upsert(ctx context.Context, collection string, records []*Record) (int, error)

	// Count 返回集合中的记录数。
	Count(ctx context.Context, collection string) (int64, error)

	// Search 返回与 embedding 最相似的 topK 条记录，按分数降序。
	Search(ctx context.Context, collection string, embedding []float32, topK int, filter *Filter) ([]*Match, error)

	// Close 关闭连接。
	Close(ctx context.Context) error
}
