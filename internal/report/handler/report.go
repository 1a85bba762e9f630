// Package handler provides HTTP handlers for the report service.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/sentinel-report/internal/report/biz"
	"github.com/kart-io/sentinel-report/internal/report/metrics"
	apierrors "github.com/kart-io/sentinel-report/pkg/utils/errors"
	"github.com/kart-io/sentinel-report/pkg/utils/response"
	"github.com/kart-io/sentinel-report/pkg/utils/validator"
)

// ReportHandler handles report HTTP requests.
type ReportHandler struct {
	service biz.Service
	metrics *metrics.ReportMetrics
	now     func() time.Time
}

// MetricsNamespace prefixes every exported metric name.
const MetricsNamespace = "sentinel_report"

// NewReportHandler creates a new ReportHandler. It exports the process wide
// report metrics.
func NewReportHandler(service biz.Service) *ReportHandler {
	return &ReportHandler{
		service: service,
		metrics: metrics.Default(),
		now:     time.Now,
	}
}

// AnalyzeRequest represents an analyze request.
type AnalyzeRequest struct {
	PDFData string `json:"pdf_data" binding:"required"`
}

// AnalyzeResponse represents an analyze response.
type AnalyzeResponse struct {
	Success    bool   `json:"success"`
	TOC        string `json:"toc"`
	Structure  string `json:"structure"`
	TextLength int    `json:"text_length"`
}

// GenerateRequest represents a generate request.
type GenerateRequest struct {
	Topic   string `json:"topic" binding:"required" validate:"notblank"`
	PDFData string `json:"pdf_data" binding:"required"`
}

// GenerateResponse represents a generate response.
type GenerateResponse struct {
	Success  bool   `json:"success"`
	Report   string `json:"report"`
	DocxData string `json:"docx_data"`
}

// HealthResponse represents a health response.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Analyze extracts, analyzes and indexes the uploaded document.
//
//	@Summary	Analyze a PDF document
//	@Tags		report
//	@Accept		json
//	@Produce	json
//	@Param		request	body		AnalyzeRequest	true	"base64 or data URL encoded PDF"
//	@Success	200		{object}	AnalyzeResponse
//	@Failure	400		{object}	response.ErrorBody
//	@Failure	500		{object}	response.ErrorBody
//	@Router		/api/analyze-document [post]
func (h *ReportHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := validator.BindJSON(c, &req); err != nil {
		response.Fail(c, apierrors.ErrValidation.WithCause(err))
		return
	}

	res, err := h.service.Analyze(c.Request.Context(), req.PDFData)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, AnalyzeResponse{
		Success:    true,
		TOC:        res.TOC,
		Structure:  res.Structure,
		TextLength: res.TextLength,
	})
}

// Generate drafts a report on the topic and returns it with its DOCX rendering.
//
//	@Summary	Generate a topic report as DOCX
//	@Tags		report
//	@Accept		json
//	@Produce	json
//	@Param		request	body		GenerateRequest	true	"topic and reference PDF"
//	@Success	200		{object}	GenerateResponse
//	@Failure	400		{object}	response.ErrorBody
//	@Failure	500		{object}	response.ErrorBody
//	@Router		/api/generate-report [post]
func (h *ReportHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := validator.BindJSON(c, &req); err != nil {
		response.Fail(c, apierrors.ErrValidation.WithCause(err))
		return
	}

	res, err := h.service.Generate(c.Request.Context(), req.Topic, req.PDFData)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, GenerateResponse{
		Success:  true,
		Report:   res.Report,
		DocxData: res.DocxData,
	})
}

// Health reports liveness. It never touches downstream dependencies.
//
//	@Summary	Liveness check
//	@Tags		report
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/api/health [get]
func (h *ReportHandler) Health(c *gin.Context) {
	response.OK(c, HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// Stats returns vector collection, cache and workflow statistics.
//
//	@Summary	Collection, cache and workflow statistics
//	@Tags		report
//	@Produce	json
//	@Success	200	{object}	biz.Stats
//	@Failure	500	{object}	response.ErrorBody
//	@Router		/api/stats [get]
func (h *ReportHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, stats)
}

// Metrics exports the report metrics in Prometheus text format.
func (h *ReportHandler) Metrics(c *gin.Context) {
	c.Data(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8", []byte(h.metrics.Export(MetricsNamespace)))
}
