package biz

import (
	"github.com/kart-io/sentinel-report/internal/report/store"
)

// Collection 是向量集合的显式句柄，在 Indexer 与 Synthesizer 之间传递。
type Collection struct {
	Name      string
	Dimension int
	Metric    string
	Cloud     string
	Region    string
}

// NewCollection 创建使用余弦度量的集合句柄。
func NewCollection(name string, dimension int) *Collection {
	return &Collection{
		Name:      name,
		Dimension: dimension,
		Metric:    store.MetricCosine,
	}
}

// WithPlacement 记录托管集合所在的云厂商和区域。
func (c *Collection) WithPlacement(cloud, region string) *Collection {
	c.Cloud = cloud
	c.Region = region
	return c
}

func (c *Collection) spec() *store.CollectionSpec {
	return &store.CollectionSpec{
		Name:      c.Name,
		Dimension: c.Dimension,
		Metric:    c.Metric,
		Cloud:     c.Cloud,
		Region:    c.Region,
	}
}
