package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	wsdelivery "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/delivery/ws"
	apperrors "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/errors"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/models"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/service"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/pkg/logger"
)

type Handler struct {
	admissions service.AdmissionService
	queue      service.QueueService
	hub        *wsdelivery.Hub
	l          logger.Logger
}

func NewHandler(
	admissions service.AdmissionService,
	queue service.QueueService,
	hub *wsdelivery.Hub,
	l logger.Logger,
) *Handler {
	return &Handler{
		admissions: admissions,
		queue:      queue,
		hub:        hub,
		l:          l,
	}
}

func (h *Handler) Register(r *gin.Engine, auth gin.HandlerFunc) {
	r.GET("/healthz", h.Health)

	api := r.Group("/api/v1/queue", auth)
	{
		api.POST("/admissions", h.Admit)
		api.POST("/entries/:id/advance", h.Advance)
		api.GET("/entries/:id", h.Entry)
		api.GET("/entries/:id/number", h.QueueNumber)
		api.GET("/status", h.Status)
		api.GET("/ws", h.Subscribe)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "clinic-queue",
	})
}

type admitRequest struct {
	PatientID     string  `json:"patient_id"`
	AppointmentID *string `json:"appointment_id"`
	Branch        string  `json:"branch" binding:"required"`
}

func (h *Handler) Admit(c *gin.Context) {
	var req admitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// Patients join for themselves; staff and admin may admit any patient.
	patientID := req.PatientID
	role := callerRole(c)
	if role == models.RolePatient || patientID == "" {
		patientID = callerID(c)
	}

	result, err := h.admissions.Admit(c.Request.Context(), service.AdmitInput{
		PatientID:     patientID,
		AppointmentID: req.AppointmentID,
		Branch:        models.Branch(req.Branch),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	status := http.StatusCreated
	if !result.Admitted {
		// Redundant admission is success-with-notice, not an error.
		status = http.StatusOK
	}
	c.JSON(status, result)
}

type advanceRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) Advance(c *gin.Context) {
	role := callerRole(c)
	if role == models.RolePatient {
		c.JSON(http.StatusForbidden, gin.H{"error": "patients cannot advance queue entries"})
		return
	}

	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	entry, err := h.queue.Advance(c.Request.Context(), c.Param("id"), models.EntryStatus(req.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *Handler) Entry(c *gin.Context) {
	entry, err := h.queue.GetEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	// Patients may look up their own entries only.
	if callerRole(c) == models.RolePatient && entry.PatientID != callerID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot view another patient's entry"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *Handler) QueueNumber(c *gin.Context) {
	number, err := h.queue.GetQueueNumber(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"queue_number": number})
}

func (h *Handler) Status(c *gin.Context) {
	viewer := service.Viewer{ID: callerID(c), Role: callerRole(c)}

	snapshot, err := h.queue.Snapshot(c.Request.Context(), viewer, models.Branch(c.Query("branch")))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) Subscribe(c *gin.Context) {
	viewer := service.Viewer{ID: callerID(c), Role: callerRole(c)}
	h.hub.Serve(c, viewer)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrEntryNotFound),
		errors.Is(err, apperrors.ErrUserNotFound),
		errors.Is(err, apperrors.ErrAppointmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnknownBranch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrContention):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.l.Error("Unhandled request error", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
