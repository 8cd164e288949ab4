package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qiyas/continuity/internal/domain/mapping"
	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
	"github.com/qiyas/continuity/pkg/types/common"
)

// MappingHandler serves section mapping management: the admin-maintained
// translation table between renamed sections of consecutive cycles.
type MappingHandler struct {
	svc    *mapping.Service
	logger logging.Logger
}

func NewMappingHandler(svc *mapping.Service, logger logging.Logger) *MappingHandler {
	return &MappingHandler{svc: svc, logger: logger}
}

type mappingRequest struct {
	CurrentIndexID  string `json:"current_index_id" binding:"required"`
	PreviousIndexID string `json:"previous_index_id" binding:"required"`
	MainAreaFromAr  string `json:"main_area_from_ar"`
	MainAreaFromEn  string `json:"main_area_from_en"`
	MainAreaToAr    string `json:"main_area_to_ar"`
	MainAreaToEn    string `json:"main_area_to_en"`
	ElementFromAr   string `json:"element_from_ar"`
	ElementFromEn   string `json:"element_from_en"`
	ElementToAr     string `json:"element_to_ar"`
	ElementToEn     string `json:"element_to_en"`
	SubDomainFromAr string `json:"sub_domain_from_ar"`
	SubDomainFromEn string `json:"sub_domain_from_en"`
	SubDomainToAr   string `json:"sub_domain_to_ar"`
	SubDomainToEn   string `json:"sub_domain_to_en"`
}

func (r *mappingRequest) toEntity() *mapping.SectionMapping {
	return &mapping.SectionMapping{
		CurrentIndexID:  common.ID(r.CurrentIndexID),
		PreviousIndexID: common.ID(r.PreviousIndexID),
		MainAreaFromAr:  r.MainAreaFromAr,
		MainAreaFromEn:  r.MainAreaFromEn,
		MainAreaToAr:    r.MainAreaToAr,
		MainAreaToEn:    r.MainAreaToEn,
		ElementFromAr:   r.ElementFromAr,
		ElementFromEn:   r.ElementFromEn,
		ElementToAr:     r.ElementToAr,
		ElementToEn:     r.ElementToEn,
		SubDomainFromAr: r.SubDomainFromAr,
		SubDomainFromEn: r.SubDomainFromEn,
		SubDomainToAr:   r.SubDomainToAr,
		SubDomainToEn:   r.SubDomainToEn,
	}
}

// Create handles POST /mappings.
func (h *MappingHandler) Create(c *gin.Context) {
	var req mappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "current_index_id and previous_index_id are required")
		return
	}

	created, err := h.svc.CreateMapping(c.Request.Context(), req.toEntity())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Get handles GET /mappings/:id.
func (h *MappingHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	m, err := h.svc.GetMapping(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// List handles GET /mappings.
func (h *MappingHandler) List(c *gin.Context) {
	page, pageSize := parsePagination(c)
	filter := mapping.ListFilter{
		CurrentIndexID:  common.ID(c.Query("current_index_id")),
		PreviousIndexID: common.ID(c.Query("previous_index_id")),
		Level:           mapping.Level(c.Query("level")),
		Pagination:      &common.Pagination{Page: page, PageSize: pageSize},
	}

	items, total, err := h.svc.ListMappings(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{
		Items:      items,
		Pagination: &common.Pagination{Page: page, PageSize: pageSize, Total: total},
	})
}

// Update handles PUT /mappings/:id.
func (h *MappingHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req mappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body")
		return
	}

	m := req.toEntity()
	m.ID = id
	updated, err := h.svc.UpdateMapping(c.Request.Context(), m)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /mappings/:id.
func (h *MappingHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteMapping(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type bulkMappingRequest struct {
	Mappings []mappingRequest `json:"mappings" binding:"required"`
}

// BulkUpsert handles POST /mappings/bulk. Rows that fail validation are
// counted and skipped, the remainder is applied.
func (h *MappingHandler) BulkUpsert(c *gin.Context) {
	var req bulkMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "mappings array is required")
		return
	}
	if len(req.Mappings) == 0 {
		respondValidation(c, "mappings array must not be empty")
		return
	}

	entities := make([]*mapping.SectionMapping, 0, len(req.Mappings))
	for i := range req.Mappings {
		entities = append(entities, req.Mappings[i].toEntity())
	}

	result, err := h.svc.BulkUpsert(c.Request.Context(), entities)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Compare handles GET /mappings/compare. It reports section coverage
// between two indices, flagging sections without a previous counterpart.
func (h *MappingHandler) Compare(c *gin.Context) {
	currentID := c.Query("current_index_id")
	previousID := c.Query("previous_index_id")
	if currentID == "" || previousID == "" {
		respondValidation(c, "current_index_id and previous_index_id are required")
		return
	}

	cmp, err := h.svc.Compare(c.Request.Context(), common.ID(currentID), common.ID(previousID))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cmp)
}

// Suggest handles GET /mappings/suggest. It proposes likely section
// mappings for uncovered sections based on name similarity.
func (h *MappingHandler) Suggest(c *gin.Context) {
	currentID := c.Query("current_index_id")
	previousID := c.Query("previous_index_id")
	if currentID == "" || previousID == "" {
		respondValidation(c, "current_index_id and previous_index_id are required")
		return
	}

	suggestions, err := h.svc.Suggest(c.Request.Context(), common.ID(currentID), common.ID(previousID))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Items: suggestions})
}
