package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/enrollease/enrollease-api/internal/service"
	appErrors "github.com/enrollease/enrollease-api/pkg/errors"
	"github.com/enrollease/enrollease-api/pkg/response"
)

// EnrollmentHandler exposes the enrollment ledger endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
	subjects    *service.SubjectService
	metrics     *service.MetricsService
}

// NewEnrollmentHandler constructs EnrollmentHandler. metrics may be nil.
func NewEnrollmentHandler(enrollments *service.EnrollmentService, subjects *service.SubjectService, metrics *service.MetricsService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, subjects: subjects, metrics: metrics}
}

func (h *EnrollmentHandler) countMutation(action string) {
	if h.metrics != nil {
		h.metrics.CountMutation("enrollment", action)
	}
}

// Enroll godoc
// @Summary Enroll a student in a subject
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollRequest true "Pair"
// @Success 201 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.countMutation("enroll")
	response.Created(c, enrollment)
}

// Drop godoc
// @Summary Drop a student from a subject
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollRequest true "Pair"
// @Success 204
// @Router /enrollments/drop [post]
func (h *EnrollmentHandler) Drop(c *gin.Context) {
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	if err := h.enrollments.Drop(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	h.countMutation("drop")
	response.NoContent(c)
}

// ListEnrolled godoc
// @Summary List students actively enrolled in a subject
// @Tags Enrollments
// @Produce json
// @Param code path string true "Subject code"
// @Success 200 {object} response.Envelope
// @Router /subjects/{code}/students [get]
func (h *EnrollmentHandler) ListEnrolled(c *gin.Context) {
	subject, err := h.subjects.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	students, err := h.enrollments.ListActiveFor(c.Request.Context(), subject.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// ListAvailable godoc
// @Summary List students not actively enrolled in a subject
// @Tags Enrollments
// @Produce json
// @Param code path string true "Subject code"
// @Success 200 {object} response.Envelope
// @Router /subjects/{code}/students/available [get]
func (h *EnrollmentHandler) ListAvailable(c *gin.Context) {
	subject, err := h.subjects.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	students, err := h.enrollments.ListAvailableFor(c.Request.Context(), subject.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// History godoc
// @Summary List a student's enrollment history
// @Tags Enrollments
// @Produce json
// @Param number path string true "Student number"
// @Success 200 {object} response.Envelope
// @Router /students/{number}/enrollments [get]
func (h *EnrollmentHandler) History(c *gin.Context) {
	enrollments, err := h.enrollments.History(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}
