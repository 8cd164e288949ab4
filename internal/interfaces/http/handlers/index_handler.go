package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qiyas/continuity/internal/domain/index"
	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
	"github.com/qiyas/continuity/pkg/types/common"
)

// IndexHandler exposes assessment index management endpoints: creation,
// lookup, completion, and cross-year linking.
type IndexHandler struct {
	svc    *index.Service
	logger logging.Logger
}

func NewIndexHandler(svc *index.Service, logger logging.Logger) *IndexHandler {
	return &IndexHandler{svc: svc, logger: logger}
}

type createIndexRequest struct {
	Code      string `json:"code" binding:"required"`
	NameAr    string `json:"name_ar" binding:"required"`
	IndexType string `json:"index_type" binding:"required"`
}

// Create handles POST /indices.
func (h *IndexHandler) Create(c *gin.Context) {
	var req createIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "code, name_ar and index_type are required")
		return
	}

	idx, err := h.svc.CreateIndex(c.Request.Context(), req.Code, req.NameAr, req.IndexType)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, idx)
}

// Get handles GET /indices/:id.
func (h *IndexHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	idx, err := h.svc.GetIndex(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, idx)
}

// List handles GET /indices with filtering and pagination.
func (h *IndexHandler) List(c *gin.Context) {
	page, pageSize := parsePagination(c)
	filter := index.ListFilter{
		IndexType:      c.Query("index_type"),
		Status:         index.Status(c.Query("status")),
		OrganizationID: common.OrganizationID(c.Query("organization_id")),
		CompletedOnly:  c.Query("completed") == "true",
		Page:           page,
		PageSize:       pageSize,
		SortBy:         c.Query("sort_by"),
		SortOrder:      c.Query("sort_order"),
	}

	items, total, err := h.svc.ListIndices(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{
		Items:      items,
		Pagination: &common.Pagination{Page: page, PageSize: pageSize, Total: total},
	})
}

// ListCompleted handles GET /indices/completed. It returns the completed
// indices of one type, the candidate pool for previous-year linking.
func (h *IndexHandler) ListCompleted(c *gin.Context) {
	indexType := c.Query("index_type")
	if indexType == "" {
		respondValidation(c, "index_type is required")
		return
	}

	items, err := h.svc.ListCompleted(c.Request.Context(), indexType)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Items: items})
}

// Complete handles POST /indices/:id/complete.
func (h *IndexHandler) Complete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	idx, err := h.svc.MarkCompleted(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, idx)
}

type linkPreviousRequest struct {
	PreviousIndexID string `json:"previous_index_id" binding:"required"`
}

// LinkPrevious handles POST /indices/:id/previous.
func (h *IndexHandler) LinkPrevious(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req linkPreviousRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "previous_index_id is required")
		return
	}

	idx, err := h.svc.LinkPrevious(c.Request.Context(), id, common.ID(req.PreviousIndexID))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, idx)
}

// UnlinkPrevious handles DELETE /indices/:id/previous.
func (h *IndexHandler) UnlinkPrevious(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	idx, err := h.svc.UnlinkPrevious(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, idx)
}
