package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qiyas/continuity/internal/application/continuity"
	"github.com/qiyas/continuity/internal/domain/index"
	"github.com/qiyas/continuity/internal/domain/recommendation"
	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
	"github.com/qiyas/continuity/internal/infrastructure/spreadsheet"
	"github.com/qiyas/continuity/pkg/types/common"
)

// RecommendationHandler serves recommendation tracking and the bulk
// spreadsheet upload that fans recommendations out to requirements.
type RecommendationHandler struct {
	svc         *recommendation.Service
	indexSvc    *index.Service
	continuity  continuity.Service
	assignerCfg continuity.AssignerConfig
	maxFileSize int64
	logger      logging.Logger
}

func NewRecommendationHandler(
	svc *recommendation.Service,
	indexSvc *index.Service,
	cont continuity.Service,
	assignerCfg continuity.AssignerConfig,
	maxFileSize int64,
	logger logging.Logger,
) *RecommendationHandler {
	if maxFileSize <= 0 {
		maxFileSize = 10 << 20
	}
	return &RecommendationHandler{
		svc:         svc,
		indexSvc:    indexSvc,
		continuity:  cont,
		assignerCfg: assignerCfg,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

type createRecommendationRequest struct {
	RequirementID string `json:"requirement_id" binding:"required"`
	IndexID       string `json:"index_id" binding:"required"`
	CurrentStatus string `json:"current_status"`
	Text          string `json:"text" binding:"required"`
}

// Create handles POST /recommendations.
func (h *RecommendationHandler) Create(c *gin.Context) {
	var req createRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "requirement_id, index_id and text are required")
		return
	}

	rec, err := h.svc.Create(c.Request.Context(),
		common.ID(req.RequirementID), common.ID(req.IndexID), req.CurrentStatus, req.Text)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// Get handles GET /recommendations/:id.
func (h *RecommendationHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	rec, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GetByRequirement handles GET /requirements/:id/recommendation.
func (h *RecommendationHandler) GetByRequirement(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	rec, err := h.svc.GetByRequirement(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ListByIndex handles GET /indices/:id/recommendations. Items come back
// grouped with their requirement's section labels for display.
func (h *RecommendationHandler) ListByIndex(c *gin.Context) {
	indexID, ok := pathID(c, "id")
	if !ok {
		return
	}

	page, pageSize := parsePagination(c)
	filter := recommendation.ListFilter{
		Status:     recommendation.Status(c.Query("status")),
		Pagination: &common.Pagination{Page: page, PageSize: pageSize},
	}

	items, total, err := h.svc.ListByIndex(c.Request.Context(), indexID, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{
		Items:      items,
		Pagination: &common.Pagination{Page: page, PageSize: pageSize, Total: total},
	})
}

// Start handles POST /recommendations/:id/start.
func (h *RecommendationHandler) Start(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	rec, err := h.svc.Start(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type markAddressedRequest struct {
	By      string `json:"by" binding:"required"`
	Comment string `json:"comment"`
}

// MarkAddressed handles POST /recommendations/:id/address.
func (h *RecommendationHandler) MarkAddressed(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req markAddressedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "by is required")
		return
	}

	rec, err := h.svc.MarkAddressed(c.Request.Context(), id, common.UserID(req.By), req.Comment)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Delete handles DELETE /recommendations/:id.
func (h *RecommendationHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Upload handles POST /indices/:id/recommendations/upload. It accepts a
// multipart spreadsheet, parses it, and fans the rows out to matching
// requirements. The whole batch is a single transaction: a structural
// failure leaves nothing written.
func (h *RecommendationHandler) Upload(c *gin.Context) {
	indexID, ok := pathID(c, "id")
	if !ok {
		return
	}

	idx, err := h.indexSvc.GetIndex(c.Request.Context(), indexID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondValidation(c, "multipart field 'file' is required")
		return
	}
	if fileHeader.Size > h.maxFileSize {
		respondValidation(c, "file exceeds the maximum upload size")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respondValidation(c, "uploaded file could not be read")
		return
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, h.maxFileSize+1))
	if err != nil {
		respondValidation(c, "uploaded file could not be read")
		return
	}
	if int64(len(raw)) > h.maxFileSize {
		respondValidation(c, "file exceeds the maximum upload size")
		return
	}

	reader, err := spreadsheet.NewExcelReader(raw)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	strategy := h.assignerCfg.StrategyFor(idx.IndexType)
	if s := c.Query("strategy"); s != "" {
		switch continuity.Strategy(s) {
		case continuity.StrategyThreeField, continuity.StrategyTwoField:
			strategy = continuity.Strategy(s)
		default:
			respondValidation(c, "strategy must be three_field or two_field")
			return
		}
	}

	result, err := h.continuity.UploadRecommendations(c.Request.Context(), &continuity.UploadInput{
		IndexID:   indexID,
		IndexType: idx.IndexType,
		Strategy:  strategy,
		Rows:      reader,
		FileName:  fileHeader.Filename,
		Raw:       raw,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
