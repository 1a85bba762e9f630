package errors

// 碳排放问答服务错误码: 21

var (
	ErrCarbonQuestion   = NewRequestErr(ServiceCarbon, 1, "Question is required", "问题不能为空")
	ErrCarbonDataset    = NewInternalErr(ServiceCarbon, 1, "Carbon dataset unavailable", "碳排放数据不可用")
	ErrChartRender      = NewInternalErr(ServiceCarbon, 2, "Failed to render chart", "图表生成失败")
	ErrCarbonNoDataset  = NewNotFoundErr(ServiceCarbon, 1, "No dataset matches the question", "未找到匹配的数据集")
	ErrCacheUnavailable = NewCacheErr(ServiceInfraCache, 1, "Cache unavailable", "缓存不可用")
)
