package errors

// Common errors shared by all services.
var (
	OK = Register(New(0, 200, 0, "OK", "成功"))

	ErrBadRequest      = NewRequestErr(ServiceCommon, 1, "Bad request", "请求错误")
	ErrInvalidParam    = NewRequestErr(ServiceCommon, 2, "Invalid parameter", "参数无效")
	ErrNotFound        = NewNotFoundErr(ServiceCommon, 1, "Resource not found", "资源不存在")
	ErrTooManyRequests = NewRateLimitErr(ServiceCommon, 1, "Too many requests", "请求过于频繁")
	ErrInternal        = NewInternalErr(ServiceCommon, 1, "Internal server error", "服务器内部错误")
	ErrPanic           = NewInternalErr(ServiceCommon, 2, "Internal server panic", "服务器内部异常")
	ErrRequestTimeout  = NewTimeoutErr(ServiceCommon, 1, "Request timeout", "请求超时")
)
