package errors

// 报告服务错误码: 20 (业务服务范围 20-79)
// 上游依赖（LLM、向量库）统一映射为 HTTP 500。

var (
	// 请求错误 (类别 01)
	ErrValidation = NewRequestErr(ServiceReport, 1, "Invalid request", "请求参数无效")
	ErrExtraction = NewRequestErr(ServiceReport, 2, "Failed to extract text from document", "文档文本提取失败")

	// 内部错误 (类别 07)
	ErrFormatting        = NewInternalErr(ServiceReport, 1, "Failed to format document", "文档生成失败")
	ErrDimensionMismatch = NewInternalErr(ServiceReport, 2, "Embedding dimension does not match collection", "向量维度与集合不匹配")
	ErrIndexing          = NewInternalErr(ServiceReport, 3, "Document indexing failed", "文档索引失败")

	// 配置错误 (类别 12)
	ErrConfiguration = NewConfigErr(ServiceReport, 1, "Service is not configured", "服务配置缺失")

	// 外部服务错误 (类别 10)
	ErrLLM         = NewExternalErr(ServiceThirdPartyLLM, 1, "Language model call failed", "大模型调用失败")
	ErrEmbedding   = NewExternalErr(ServiceThirdPartyLLM, 2, "Embedding call failed", "向量化调用失败")
	ErrVectorStore = NewExternalErr(ServiceThirdPartyVectorDB, 1, "Vector store call failed", "向量库调用失败")
)
