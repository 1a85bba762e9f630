package llm

import "time"

// 供应商配置 map 中使用的键，与 pkg/options/llm 的 ToConfigMap 对应。
const (
	ConfigBaseURL      = "base_url"
	ConfigAPIKey       = "api_key"
	ConfigEmbedModel   = "embed_model"
	ConfigChatModel    = "chat_model"
	ConfigTimeout      = "timeout"
	ConfigMaxRetries   = "max_retries"
	ConfigOrganization = "organization"
)

// StringValue 读取字符串配置，缺省或类型不符时返回 def。
func StringValue(config map[string]any, key, def string) string {
	if v, ok := config[key].(string); ok && v != "" {
		return v
	}
	return def
}

// IntValue 读取整数配置。
func IntValue(config map[string]any, key string, def int) int {
	switch v := config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// DurationValue 读取时长配置，支持 time.Duration 和可解析的字符串。
func DurationValue(config map[string]any, key string, def time.Duration) time.Duration {
	switch v := config[key].(type) {
	case time.Duration:
		if v > 0 {
			return v
		}
	case string:
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
