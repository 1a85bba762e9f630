package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Question string `json:"question" validate:"notblank"`
	Limit    int    `json:"limit" validate:"gte=0"`
}

func TestStructPasses(t *testing.T) {
	assert.NoError(t, New().Struct(&chatRequest{Question: "2020년 배출량은?"}, LangEN))
}

func TestNotBlank(t *testing.T) {
	for _, q := range []string{"", "   ", "\n\t"} {
		err := New().Struct(&chatRequest{Question: q}, LangEN)

		var verrs *ValidationErrors
		require.ErrorAs(t, err, &verrs)
		require.Len(t, verrs.Errors, 1)
		assert.Equal(t, "question", verrs.Errors[0].Field)
		assert.Equal(t, TagNotBlank, verrs.Errors[0].Tag)
		assert.Equal(t, "question must not be blank", verrs.First())
	}
}

func TestTranslatesByLanguage(t *testing.T) {
	v := New()

	err := v.Struct(&chatRequest{Question: " ", Limit: -1}, "zh-CN,zh;q=0.9")
	var verrs *ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs.Messages(), 2)
	assert.Contains(t, verrs.Error(), "question不能为空白")

	err = v.Struct(&chatRequest{Question: "q", Limit: -1}, "")
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "limit", verrs.Errors[0].Field)
	assert.Equal(t, "0", verrs.Errors[0].Param)
	assert.Contains(t, verrs.First(), "limit must be 0 or greater")
}

func TestTranslatePassesOtherErrors(t *testing.T) {
	plain := errors.New("unexpected EOF")
	assert.Same(t, plain, Translate(plain, LangEN))
	assert.NoError(t, Translate(nil, LangEN))
}

func TestGlobalIsShared(t *testing.T) {
	assert.Same(t, Global(), Global())
	assert.Error(t, Struct(&chatRequest{}, LangEN))
}
