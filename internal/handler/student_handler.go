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

// StudentHandler exposes student directory endpoints.
type StudentHandler struct {
	students  *service.StudentService
	numbering *service.NumberingService
	metrics   *service.MetricsService
}

// NewStudentHandler constructs StudentHandler. metrics may be nil.
func NewStudentHandler(students *service.StudentService, numbering *service.NumberingService, metrics *service.MetricsService) *StudentHandler {
	return &StudentHandler{students: students, numbering: numbering, metrics: metrics}
}

func (h *StudentHandler) countMutation(action string) {
	if h.metrics != nil {
		h.metrics.CountMutation("student", action)
	}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Search by name or number"
// @Param section query string false "Filter by section"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	var filter models.StudentFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Section = c.Query("section")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get a student by number
// @Tags Students
// @Produce json
// @Param number path string true "Student number"
// @Success 200 {object} response.Envelope
// @Router /students/{number} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// NextNumber godoc
// @Summary Derive the next student number for a year prefix
// @Tags Students
// @Produce json
// @Param prefix query string true "Year prefix, e.g. 25-"
// @Success 200 {object} response.Envelope
// @Router /students/next-number [get]
func (h *StudentHandler) NextNumber(c *gin.Context) {
	number, err := h.numbering.Next(c.Request.Context(), c.Query("prefix"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"student_number": number}, nil)
}

// Create godoc
// @Summary Register a student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.CreateStudentRequest true "Student"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.countMutation("create")
	response.Created(c, student)
}

// Update godoc
// @Summary Update a student
// @Tags Students
// @Accept json
// @Produce json
// @Param number path string true "Student number"
// @Param payload body service.UpdateStudentRequest true "Student fields"
// @Success 200 {object} response.Envelope
// @Router /students/{number} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req service.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	student, err := h.students.Update(c.Request.Context(), c.Param("number"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.countMutation("update")
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Delete a student
// @Tags Students
// @Param number path string true "Student number"
// @Success 204
// @Router /students/{number} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.students.Delete(c.Request.Context(), c.Param("number")); err != nil {
		response.Error(c, err)
		return
	}
	h.countMutation("delete")
	response.NoContent(c)
}
