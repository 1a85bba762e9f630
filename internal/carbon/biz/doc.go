// Package biz 实现碳排放数据问答：数据集加载、问题意图分析、图表渲染和回答缓存。
package biz
