package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoin(t *testing.T) {
	tests := []struct {
		name     string
		prefixes []string
		want     string
	}{
		{"无前缀", nil, ""},
		{"单个前缀", []string{"report"}, "report."},
		{"多个前缀", []string{"report", "chat"}, "report.chat."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Join(tt.prefixes...))
		})
	}
}
