// Package store 提供报告服务的向量存储层。
//
// VectorStore 抽象集合的创建、写入与检索。MilvusStore 是生产实现，
// MemoryStore 在进程内做暴力余弦检索，供测试和本地调试使用。
package store
