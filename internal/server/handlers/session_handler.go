package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/incubator/internal/domain/models"
	"github.com/mamadbah2/incubator/internal/service/schedule"
	"github.com/mamadbah2/incubator/internal/service/sessions"
)

// SessionService is the session surface exposed over HTTP.
type SessionService interface {
	Create(ctx context.Context, name string, batches []models.Batch) (models.IncubationSession, error)
	Delete(ctx context.Context, id int64) error
	Views(ctx context.Context) ([]schedule.View, error)
	View(ctx context.Context, id int64) (schedule.View, error)
	Today() time.Time
}

// SessionHandler serves the incubation session endpoints.
type SessionHandler struct {
	svc    SessionService
	logger *zap.Logger
}

// NewSessionHandler constructs the HTTP handler adapter.
func NewSessionHandler(svc SessionService, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{svc: svc, logger: logger}
}

type batchRequest struct {
	Species     string `json:"species"`
	Description string `json:"description"`
	EggCount    *int   `json:"egg_count"`
}

type createSessionRequest struct {
	Name    string         `json:"name"`
	Batches []batchRequest `json:"batches"`
}

type speciesResponse struct {
	ID             models.Species `json:"id"`
	Label          string         `json:"label"`
	IncubationDays int            `json:"incubation_days"`
}

type batchResponse struct {
	Species       models.Species  `json:"species"`
	Label         string          `json:"label"`
	Description   string          `json:"description"`
	EggCount      int             `json:"egg_count"`
	InsertionDay  int             `json:"insertion_day"`
	InsertionDate string          `json:"insertion_date"`
	Status        schedule.Status `json:"status"`
}

type sessionResponse struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	StartDate         string          `json:"start_date"`
	Today             string          `json:"today"`
	MaxIncubationDays int             `json:"max_incubation_days"`
	FinalHatchDate    string          `json:"final_hatch_date"`
	CurrentDay        int             `json:"current_day"`
	DaysUntilHatch    int             `json:"days_until_hatch"`
	Progress          float64         `json:"progress"`
	ActionDay         bool            `json:"action_day"`
	LoadWarning       string          `json:"load_warning,omitempty"`
	Batches           []batchResponse `json:"batches"`
}

func newSessionResponse(v schedule.View) sessionResponse {
	resp := sessionResponse{
		ID:                v.Session.ID,
		Name:              v.Session.Name,
		StartDate:         v.Session.StartDate.Format(models.DateLayout),
		Today:             v.Today.Format(models.DateLayout),
		MaxIncubationDays: v.MaxIncubationDays,
		FinalHatchDate:    v.FinalHatchDate.Format(models.DateLayout),
		CurrentDay:        v.CurrentDay,
		DaysUntilHatch:    v.DaysUntilHatch,
		Progress:          v.Progress,
		ActionDay:         v.ActionDay,
		LoadWarning:       v.Session.LoadWarning,
		Batches:           make([]batchResponse, 0, len(v.Batches)),
	}
	for _, bv := range v.Batches {
		resp.Batches = append(resp.Batches, batchResponse{
			Species:       bv.Batch.Species,
			Label:         bv.Batch.Species.Label(),
			Description:   bv.Batch.Description,
			EggCount:      bv.Batch.EggCount,
			InsertionDay:  bv.InsertionDay,
			InsertionDate: bv.InsertionDate.Format(models.DateLayout),
			Status:        bv.Status,
		})
	}
	return resp
}

// Species lists the supported species and their incubation periods.
func (h *SessionHandler) Species(c *gin.Context) {
	all := models.AllSpecies()
	resp := make([]speciesResponse, 0, len(all))
	for _, sp := range all {
		resp = append(resp, speciesResponse{ID: sp, Label: sp.Label(), IncubationDays: sp.IncubationDays()})
	}
	c.JSON(http.StatusOK, resp)
}

// List returns today's view of every session, newest first.
func (h *SessionHandler) List(c *gin.Context) {
	views, err := h.svc.Views(c.Request.Context())
	if err != nil {
		h.logger.Error("failed listing sessions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load sessions"})
		return
	}

	resp := make([]sessionResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, newSessionResponse(v))
	}
	c.JSON(http.StatusOK, resp)
}

// Get returns today's view of one session.
func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	v, err := h.svc.View(c.Request.Context(), id)
	if errors.Is(err, sessions.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed loading session", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load session"})
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(v))
}

// Create starts a new session today.
func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid session payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	batches := make([]models.Batch, 0, len(req.Batches))
	for _, b := range req.Batches {
		species, err := models.ParseSpecies(b.Species)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		count := models.DefaultEggCount
		if b.EggCount != nil {
			count = *b.EggCount
		}
		batches = append(batches, models.Batch{Species: species, Description: b.Description, EggCount: count})
	}

	session, err := h.svc.Create(c.Request.Context(), req.Name, batches)
	if errors.Is(err, models.ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("failed creating session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to save session"})
		return
	}

	c.JSON(http.StatusCreated, newSessionResponse(schedule.Build(session, h.svc.Today())))
}

// Delete removes a session. Unknown ids are not an error.
func (h *SessionHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("failed deleting session", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to delete session"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return 0, false
	}
	return id, true
}
