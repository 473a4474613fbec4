package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	search        *usecase.SearchService
	maxBatchItems int
}

// NewHandler creates a new HTTP handler
func NewHandler(search *usecase.SearchService, maxBatchItems int) *Handler {
	if maxBatchItems <= 0 {
		maxBatchItems = 5
	}
	return &Handler{
		search:        search,
		maxBatchItems: maxBatchItems,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pricelens-backend",
		"version": "1.0.0",
	})
}

type searchRequest struct {
	Query string `json:"query" binding:"required"`
	Page  int    `json:"page"`
}

// Search handles single-query product search requests
func (h *Handler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	page, err := h.search.Search(c.Request.Context(), req.Query, req.Page)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

type compareRequest struct {
	A string `json:"a" binding:"required"`
	B string `json:"b" binding:"required"`
}

// Compare handles two-product comparison requests
func (h *Handler) Compare(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "both products are required"})
		return
	}

	result, err := h.search.Compare(c.Request.Context(), req.A, req.B)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type batchSearchRequest struct {
	Queries []string `json:"queries" binding:"required"`
}

type batchSearchResponse struct {
	Success bool                                       `json:"success"`
	Count   int                                        `json:"count"`
	Results []*usecase.SearchPage                      `json:"results"`
	Items   []usecase.ItemOutcome[*usecase.SearchPage] `json:"items"`
}

// BatchSearch handles multi-query batch search requests using the
// sequential-retry strategy. Partial success is still a success: only a
// fully-empty result set fails the batch.
func (h *Handler) BatchSearch(c *gin.Context) {
	var req batchSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "queries list is required"})
		return
	}
	if len(req.Queries) > h.maxBatchItems {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "too many items",
			"max":   h.maxBatchItems,
		})
		return
	}

	report, err := h.search.BatchSearch(c.Request.Context(), req.Queries, func(current, total int) {
		log.Printf("[BATCH] processing item %d/%d", current+1, total)
	})
	if err != nil {
		if errors.Is(err, domain.ErrBatchFailed) {
			c.JSON(http.StatusBadGateway, batchSearchResponse{
				Success: false,
				Results: report.Results,
				Items:   report.Items,
			})
			return
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, batchSearchResponse{
		Success: true,
		Count:   len(report.Results),
		Results: report.Results,
		Items:   report.Items,
	})
}

type imageBatchRequest struct {
	Images []string `json:"images" binding:"required"`
}

// ImageBatchSearch handles multi-image batch search requests using the
// parallel fan-out strategy. Every input image yields exactly one outcome,
// failed lookups included.
func (h *Handler) ImageBatchSearch(c *gin.Context) {
	var req imageBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "images list is required"})
		return
	}
	if len(req.Images) > h.maxBatchItems {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "too many items",
			"max":   h.maxBatchItems,
		})
		return
	}

	outcomes, err := h.search.ImageBatchSearch(c.Request.Context(), req.Images)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": outcomes})
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery), errors.Is(err, domain.ErrEmptyBatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNoResults):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrProviderFailure):
		c.JSON(http.StatusBadGateway, gin.H{"error": domain.FailureMessage(err)})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
