package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
)

func TestMakeCode(t *testing.T) {
	code := MakeCode(ServiceReport, CategoryRequest, 2)
	assert.Equal(t, 2001002, code)

	service, category, seq := ParseCode(code)
	assert.Equal(t, ServiceReport, service)
	assert.Equal(t, CategoryRequest, category)
	assert.Equal(t, 2, seq)
}

func TestErrnoHTTPMapping(t *testing.T) {
	tests := []struct {
		name string
		err  *Errno
		want int
	}{
		{"validation", ErrValidation, http.StatusBadRequest},
		{"extraction", ErrExtraction, http.StatusBadRequest},
		{"configuration", ErrConfiguration, http.StatusInternalServerError},
		{"vector store", ErrVectorStore, http.StatusInternalServerError},
		{"carbon question", ErrCarbonQuestion, http.StatusBadRequest},
		{"carbon no dataset", ErrCarbonNoDataset, http.StatusNotFound},
		{"llm", ErrLLM, http.StatusInternalServerError},
		{"formatting", ErrFormatting, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestErrnoWithCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := ErrVectorStore.WithCause(cause)

	assert.True(t, stderrors.Is(err, ErrVectorStore))
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "Vector store call failed: connection refused", err.Detail())
	// the registered value is left untouched
	assert.Nil(t, ErrVectorStore.Unwrap())
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	wrapped := fmt.Errorf("analyze: %w", ErrExtraction.WithMessage("empty document"))
	e := FromError(wrapped)
	assert.Equal(t, ErrExtraction.Code, e.Code)
	assert.Equal(t, "empty document", e.MessageEN)

	plain := FromError(stderrors.New("boom"))
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.True(t, IsCode(plain, ErrInternal.Code))
}

func TestRegisterDuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		NewRequestErr(ServiceReport, 1, "duplicate", "重复")
	})
}

func TestCodeCategories(t *testing.T) {
	assert.True(t, IsClientError(ErrExtraction.Code))
	assert.False(t, IsServerError(ErrExtraction.Code))
	assert.True(t, IsServerError(ErrConfiguration.Code))
	assert.Equal(t, codes.FailedPrecondition, ErrConfiguration.GRPCStatus())
}
