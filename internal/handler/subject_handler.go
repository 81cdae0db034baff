package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/enrollease/enrollease-api/internal/models"
	"github.com/enrollease/enrollease-api/internal/service"
	appErrors "github.com/enrollease/enrollease-api/pkg/errors"
	"github.com/enrollease/enrollease-api/pkg/response"
)

// SubjectHandler exposes subject catalog endpoints.
type SubjectHandler struct {
	subjects *service.SubjectService
	exports  *service.ExportService
	metrics  *service.MetricsService
}

// NewSubjectHandler constructs SubjectHandler. metrics may be nil.
func NewSubjectHandler(subjects *service.SubjectService, exports *service.ExportService, metrics *service.MetricsService) *SubjectHandler {
	return &SubjectHandler{subjects: subjects, exports: exports, metrics: metrics}
}

func (h *SubjectHandler) countMutation(action string) {
	if h.metrics != nil {
		h.metrics.CountMutation("subject", action)
	}
}

// List godoc
// @Summary List subjects
// @Tags Subjects
// @Produce json
// @Param search query string false "Search by code or name"
// @Param yearLevel query int false "Filter by year level"
// @Param section query string false "Filter by section"
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *SubjectHandler) List(c *gin.Context) {
	var filter models.SubjectFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Section = c.Query("section")
	if yearLevel, err := strconv.Atoi(c.DefaultQuery("yearLevel", "0")); err == nil {
		filter.YearLevel = yearLevel
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	subjects, pagination, err := h.subjects.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, pagination)
}

// Get godoc
// @Summary Get a subject by code
// @Tags Subjects
// @Produce json
// @Param code path string true "Subject code"
// @Success 200 {object} response.Envelope
// @Router /subjects/{code} [get]
func (h *SubjectHandler) Get(c *gin.Context) {
	subject, err := h.subjects.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// Create godoc
// @Summary Add a subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param payload body service.CreateSubjectRequest true "Subject"
// @Success 201 {object} response.Envelope
// @Router /subjects [post]
func (h *SubjectHandler) Create(c *gin.Context) {
	var req service.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	subject, err := h.subjects.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.countMutation("create")
	response.Created(c, subject)
}

// Update godoc
// @Summary Update a subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param code path string true "Subject code"
// @Param payload body service.UpdateSubjectRequest true "Subject fields"
// @Success 200 {object} response.Envelope
// @Router /subjects/{code} [put]
func (h *SubjectHandler) Update(c *gin.Context) {
	var req service.UpdateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	subject, err := h.subjects.Update(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.countMutation("update")
	response.JSON(c, http.StatusOK, subject, nil)
}

// Delete godoc
// @Summary Delete a subject
// @Tags Subjects
// @Param code path string true "Subject code"
// @Success 204
// @Router /subjects/{code} [delete]
func (h *SubjectHandler) Delete(c *gin.Context) {
	if err := h.subjects.Delete(c.Request.Context(), c.Param("code")); err != nil {
		response.Error(c, err)
		return
	}
	h.countMutation("delete")
	response.NoContent(c)
}

// ExportRoster godoc
// @Summary Export the active roster of a subject
// @Tags Subjects
// @Produce text/csv
// @Produce application/pdf
// @Param code path string true "Subject code"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200
// @Router /subjects/{code}/roster/export [get]
func (h *SubjectHandler) ExportRoster(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	file, err := h.exports.Roster(c.Request.Context(), c.Param("code"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
