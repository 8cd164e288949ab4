package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qiyas/continuity/internal/application/continuity"
	"github.com/qiyas/continuity/internal/domain/requirement"
	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
	"github.com/qiyas/continuity/pkg/types/common"
)

// RequirementHandler serves requirement CRUD, the answer workflow, and the
// previous-year context endpoint backing the assessor sidebar.
type RequirementHandler struct {
	svc        *requirement.Service
	continuity continuity.Service
	logger     logging.Logger
}

func NewRequirementHandler(svc *requirement.Service, cont continuity.Service, logger logging.Logger) *RequirementHandler {
	return &RequirementHandler{svc: svc, continuity: cont, logger: logger}
}

type createRequirementRequest struct {
	Code         string `json:"code" binding:"required"`
	QuestionAr   string `json:"question_ar" binding:"required"`
	QuestionEn   string `json:"question_en"`
	MainAreaAr   string `json:"main_area_ar" binding:"required"`
	MainAreaEn   string `json:"main_area_en"`
	ElementAr    string `json:"element_ar" binding:"required"`
	ElementEn    string `json:"element_en"`
	SubDomainAr  string `json:"sub_domain_ar" binding:"required"`
	SubDomainEn  string `json:"sub_domain_en"`
	DisplayOrder int    `json:"display_order"`
}

// Create handles POST /indices/:id/requirements.
func (h *RequirementHandler) Create(c *gin.Context) {
	indexID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req createRequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "code, question_ar and the section fields are required")
		return
	}

	entity, err := requirement.NewRequirement(indexID, req.Code, req.QuestionAr, req.MainAreaAr)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	entity.QuestionEn = req.QuestionEn
	entity.MainAreaEn = req.MainAreaEn
	entity.ElementAr = req.ElementAr
	entity.ElementEn = req.ElementEn
	entity.SubDomainAr = req.SubDomainAr
	entity.SubDomainEn = req.SubDomainEn
	entity.DisplayOrder = req.DisplayOrder

	created, err := h.svc.CreateRequirement(c.Request.Context(), entity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Get handles GET /requirements/:id.
func (h *RequirementHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	r, err := h.svc.GetRequirement(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// List handles GET /indices/:id/requirements.
func (h *RequirementHandler) List(c *gin.Context) {
	indexID, ok := pathID(c, "id")
	if !ok {
		return
	}

	page, pageSize := parsePagination(c)
	filter := requirement.ListFilter{
		MainAreaAr:   c.Query("main_area"),
		ElementAr:    c.Query("element"),
		SubDomainAr:  c.Query("sub_domain"),
		AnswerStatus: requirement.AnswerStatus(c.Query("answer_status")),
		Search:       c.Query("search"),
		Page:         page,
		PageSize:     pageSize,
		SortBy:       c.Query("sort_by"),
		SortOrder:    c.Query("sort_order"),
	}

	items, total, err := h.svc.ListRequirements(c.Request.Context(), indexID, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{
		Items:      items,
		Pagination: &common.Pagination{Page: page, PageSize: pageSize, Total: total},
	})
}

type updateRequirementRequest struct {
	QuestionAr   string `json:"question_ar"`
	QuestionEn   string `json:"question_en"`
	MainAreaAr   string `json:"main_area_ar"`
	MainAreaEn   string `json:"main_area_en"`
	ElementAr    string `json:"element_ar"`
	ElementEn    string `json:"element_en"`
	SubDomainAr  string `json:"sub_domain_ar"`
	SubDomainEn  string `json:"sub_domain_en"`
	DisplayOrder *int   `json:"display_order"`
}

// Update handles PUT /requirements/:id. Only provided fields overwrite
// the stored requirement.
func (h *RequirementHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req updateRequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body")
		return
	}

	existing, err := h.svc.GetRequirement(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	applyIfSet(&existing.QuestionAr, req.QuestionAr)
	applyIfSet(&existing.QuestionEn, req.QuestionEn)
	applyIfSet(&existing.MainAreaAr, req.MainAreaAr)
	applyIfSet(&existing.MainAreaEn, req.MainAreaEn)
	applyIfSet(&existing.ElementAr, req.ElementAr)
	applyIfSet(&existing.ElementEn, req.ElementEn)
	applyIfSet(&existing.SubDomainAr, req.SubDomainAr)
	applyIfSet(&existing.SubDomainEn, req.SubDomainEn)
	if req.DisplayOrder != nil {
		existing.DisplayOrder = *req.DisplayOrder
	}

	updated, err := h.svc.UpdateRequirement(c.Request.Context(), existing)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func applyIfSet(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Delete handles DELETE /requirements/:id.
func (h *RequirementHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteRequirement(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ─────────────────────────────────────────────────────────────────────────────
// Answer workflow
// ─────────────────────────────────────────────────────────────────────────────

type saveAnswerRequest struct {
	AnswerAr string `json:"answer_ar"`
	AnswerEn string `json:"answer_en"`
}

// SaveAnswer handles PUT /requirements/:id/answer.
func (h *RequirementHandler) SaveAnswer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req saveAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body")
		return
	}

	r, err := h.svc.SaveAnswer(c.Request.Context(), id, req.AnswerAr, req.AnswerEn)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// transition wires one answer workflow operation to a POST endpoint.
func (h *RequirementHandler) transition(op func(c *gin.Context, id common.ID) (*requirement.Requirement, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		r, err := op(c, id)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

// Submit handles POST /requirements/:id/answer/submit.
func (h *RequirementHandler) Submit() gin.HandlerFunc {
	return h.transition(func(c *gin.Context, id common.ID) (*requirement.Requirement, error) {
		return h.svc.SubmitAnswer(c.Request.Context(), id)
	})
}

// Approve handles POST /requirements/:id/answer/approve.
func (h *RequirementHandler) Approve() gin.HandlerFunc {
	return h.transition(func(c *gin.Context, id common.ID) (*requirement.Requirement, error) {
		return h.svc.ApproveAnswer(c.Request.Context(), id)
	})
}

// Reject handles POST /requirements/:id/answer/reject.
func (h *RequirementHandler) Reject() gin.HandlerFunc {
	return h.transition(func(c *gin.Context, id common.ID) (*requirement.Requirement, error) {
		return h.svc.RejectAnswer(c.Request.Context(), id)
	})
}

// RequestChanges handles POST /requirements/:id/answer/request-changes.
func (h *RequirementHandler) RequestChanges() gin.HandlerFunc {
	return h.transition(func(c *gin.Context, id common.ID) (*requirement.Requirement, error) {
		return h.svc.RequestChanges(c.Request.Context(), id)
	})
}

// Confirm handles POST /requirements/:id/answer/confirm.
func (h *RequirementHandler) Confirm() gin.HandlerFunc {
	return h.transition(func(c *gin.Context, id common.ID) (*requirement.Requirement, error) {
		return h.svc.ConfirmAnswer(c.Request.Context(), id)
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Previous-year context
// ─────────────────────────────────────────────────────────────────────────────

// PreviousContext handles GET /requirements/:id/previous-context. A
// requirement with no previous-year data resolves to an unmatched
// context rather than an error.
func (h *RequirementHandler) PreviousContext(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	pyc, err := h.continuity.PreviousYearContext(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if pyc == nil {
		c.JSON(http.StatusOK, continuity.PreviousYearContext{Matched: false})
		return
	}
	c.JSON(http.StatusOK, pyc)
}
