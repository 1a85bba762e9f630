package biz

import (
	"context"
	"errors"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-report/internal/pkg/textutil"
	"github.com/kart-io/sentinel-report/internal/report/store"
	"github.com/kart-io/sentinel-report/pkg/infra/pool"
	"github.com/kart-io/sentinel-report/pkg/llm"
	apierrors "github.com/kart-io/sentinel-report/pkg/utils/errors"
)

// IndexerConfig 索引器配置。
type IndexerConfig struct {
	// ChunkSize 文本块大小（字符）。
	ChunkSize int
	// ChunkOverlap 相邻块重叠大小（字符）。
	ChunkOverlap int
	// BatchSize 每次 Embedding 调用的块数。
	BatchSize int
}

// DefaultIndexerConfig 返回默认配置。
func DefaultIndexerConfig() *IndexerConfig {
	return &IndexerConfig{
		ChunkSize:    1000,
		ChunkOverlap: 150,
		BatchSize:    100,
	}
}

// IndexResult 是一次索引的结果。
type IndexResult struct {
	// DocumentID 由文本内容哈希得到，同一文本总是得到相同的 ID。
	DocumentID string
	// Chunks 写入的块数。
	Chunks int
	// Created 表示本次调用创建了集合。
	Created bool
}

// Indexer 负责把文本写入向量集合。
type Indexer struct {
	store    store.VectorStore
	embedder llm.EmbeddingProvider
	config   *IndexerConfig
	workers  *pool.Pool
}

// NewIndexer 创建索引器实例。
func NewIndexer(vs store.VectorStore, embedder llm.EmbeddingProvider, config *IndexerConfig) *Indexer {
	if config == nil {
		config = DefaultIndexerConfig()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultIndexerConfig().BatchSize
	}
	return &Indexer{
		store:    vs,
		embedder: embedder,
		config:   config,
	}
}

// WithWorkers 让多个 Embedding 批次并发执行，nil 表示顺序执行。
func (i *Indexer) WithWorkers(workers *pool.Pool) *Indexer {
	i.workers = workers
	return i
}

// DocumentID 返回文本对应的文档 ID。
func DocumentID(text string) string {
	return textutil.ShortHash(text, 32)
}

// Index 分块、向量化并写入集合，任何一步失败都会中止整个操作。
func (i *Indexer) Index(ctx context.Context, coll *Collection, text string) (*IndexResult, error) {
	chunks := textutil.SplitIntoChunks(text, i.config.ChunkSize, i.config.ChunkOverlap)
	if len(chunks) == 0 {
		return nil, apierrors.ErrIndexing.WithMessage("no text to index")
	}

	embeddings, err := i.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}
	for n, vec := range embeddings {
		if len(vec) != coll.Dimension {
			return nil, apierrors.ErrDimensionMismatch.WithCause(
				fmt.Errorf("chunk %d has %d dimensions, collection %s expects %d", n, len(vec), coll.Name, coll.Dimension))
		}
	}

	created, err := i.ensureCollection(ctx, coll)
	if err != nil {
		return nil, err
	}

	docID := DocumentID(text)
	records := make([]*store.Record, len(chunks))
	for n, chunk := range chunks {
		records[n] = &store.Record{
			DocumentID: docID,
			ChunkIndex: n,
			Content:    chunk,
			Embedding:  embeddings[n],
		}
	}

	written, err := i.store.Upsert(ctx, coll.Name, records)
	if err != nil {
		return nil, storeError(err)
	}

	logger.Infow("document indexed",
		"collection", coll.Name,
		"document_id", docID,
		"chunks", written,
		"created", created,
	)
	return &IndexResult{
		DocumentID: docID,
		Chunks:     written,
		Created:    created,
	}, nil
}

// embed 按批次调用 Embedding，结果与 chunks 一一对应。
func (i *Indexer) embed(ctx context.Context, chunks []string) ([][]float32, error) {
	size := i.config.BatchSize
	batches := (len(chunks) + size - 1) / size
	results := make([][][]float32, batches)

	embedBatch := func(ctx context.Context, b int) error {
		start := b * size
		end := min(start+size, len(chunks))

		vecs, err := i.embedder.Embed(ctx, chunks[start:end])
		if err != nil {
			return apierrors.ErrEmbedding.WithCause(err)
		}
		if len(vecs) != end-start {
			return apierrors.ErrEmbedding.WithCause(
				fmt.Errorf("expected %d embeddings, got %d", end-start, len(vecs)))
		}
		results[b] = vecs
		return nil
	}

	if i.workers == nil || batches == 1 {
		for b := range batches {
			if err := embedBatch(ctx, b); err != nil {
				return nil, err
			}
		}
	} else if err := i.workers.Run(ctx, batches, embedBatch); err != nil {
		if apierrors.IsCode(err, apierrors.ErrEmbedding.Code) {
			return nil, err
		}
		return nil, apierrors.ErrEmbedding.WithCause(err)
	}

	embeddings := make([][]float32, 0, len(chunks))
	for _, vecs := range results {
		embeddings = append(embeddings, vecs...)
	}
	return embeddings, nil
}

// ensureCollection 先检查后创建，两步之间不加锁。
// 创建失败后再次检查集合，若已被并发请求创建则视为成功。
func (i *Indexer) ensureCollection(ctx context.Context, coll *Collection) (bool, error) {
	created, err := i.store.EnsureCollection(ctx, coll.spec())
	if err == nil {
		return created, nil
	}
	if errors.Is(err, store.ErrDimensionMismatch) {
		return false, apierrors.ErrDimensionMismatch.WithCause(err)
	}

	exists, checkErr := i.store.HasCollection(ctx, coll.Name)
	if checkErr != nil || !exists {
		return false, apierrors.ErrVectorStore.WithCause(err)
	}
	logger.Infow("collection was created by a concurrent request", "collection", coll.Name, "error", err.Error())
	return false, nil
}

func storeError(err error) error {
	if errors.Is(err, store.ErrDimensionMismatch) {
		return apierrors.ErrDimensionMismatch.WithCause(err)
	}
	return apierrors.ErrVectorStore.WithCause(err)
}
