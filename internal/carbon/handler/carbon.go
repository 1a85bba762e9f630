// Package handler provides HTTP handlers for the carbon data chat.
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/sentinel-report/internal/carbon/biz"
	apierrors "github.com/kart-io/sentinel-report/pkg/utils/errors"
	"github.com/kart-io/sentinel-report/pkg/utils/response"
	"github.com/kart-io/sentinel-report/pkg/utils/validator"
)

// CarbonHandler handles carbon chat HTTP requests.
type CarbonHandler struct {
	service biz.Service
}

// NewCarbonHandler creates a new CarbonHandler.
func NewCarbonHandler(service biz.Service) *CarbonHandler {
	return &CarbonHandler{service: service}
}

// ChatRequest represents a chat request.
type ChatRequest struct {
	Question string `json:"question" binding:"required" validate:"notblank"`
}

// ChatResponse represents a chat response.
type ChatResponse struct {
	Success   bool          `json:"success"`
	Answer    string        `json:"answer"`
	Intent    biz.QueryType `json:"intent"`
	ChartType biz.ChartType `json:"chart_type"`
	ChartPNG  string        `json:"chart_png,omitempty"`
}

// DatasetsResponse lists the loaded datasets.
type DatasetsResponse struct {
	Success  bool                 `json:"success"`
	Datasets []biz.DatasetSummary `json:"datasets"`
}

// Chat answers a question about the emission datasets.
//
//	@Summary	Ask a question about the emission datasets
//	@Tags		carbon
//	@Accept		json
//	@Produce	json
//	@Param		request	body		ChatRequest	true	"question"
//	@Success	200		{object}	ChatResponse
//	@Failure	400		{object}	response.ErrorBody
//	@Failure	404		{object}	response.ErrorBody
//	@Failure	500		{object}	response.ErrorBody
//	@Router		/api/carbon/chat [post]
func (h *CarbonHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := validator.BindJSON(c, &req); err != nil {
		response.Fail(c, apierrors.ErrCarbonQuestion.WithCause(err))
		return
	}

	answer, err := h.service.Ask(c.Request.Context(), req.Question)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, ChatResponse{
		Success:   true,
		Answer:    answer.Answer,
		Intent:    answer.Intent,
		ChartType: answer.ChartType,
		ChartPNG:  answer.ChartPNG,
	})
}

// Datasets lists the loaded datasets.
//
//	@Summary	List the loaded datasets
//	@Tags		carbon
//	@Produce	json
//	@Success	200	{object}	DatasetsResponse
//	@Router		/api/carbon/datasets [get]
func (h *CarbonHandler) Datasets(c *gin.Context) {
	response.OK(c, DatasetsResponse{
		Success:  true,
		Datasets: h.service.Datasets(),
	})
}
