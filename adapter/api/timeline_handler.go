package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/felixgeelhaar/eventline/internal/planning/application/commands"
	"github.com/felixgeelhaar/eventline/internal/planning/application/queries"
	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TimelineHandler serves the recalculation endpoints.
type TimelineHandler struct {
	recalculate *commands.RecalculateTimelineHandler
	preview     *queries.PreviewRecalculationHandler
	last        *queries.GetLastRecalculationHandler
}

func NewTimelineHandler(
	recalculate *commands.RecalculateTimelineHandler,
	preview *queries.PreviewRecalculationHandler,
	last *queries.GetLastRecalculationHandler,
) *TimelineHandler {
	return &TimelineHandler{recalculate: recalculate, preview: preview, last: last}
}

// recalculateRequest is the optional JSON body. respect_locks defaults to
// true; today defaults to the server's current date.
type recalculateRequest struct {
	RespectLocks *bool  `json:"respect_locks"`
	Distribution string `json:"distribution"`
	Today        string `json:"today"`
}

type recalculateResponse struct {
	Success bool `json:"success"`
	*domain.Result
}

type parsedRequest struct {
	timelineID uuid.UUID
	options    domain.Options
	today      time.Time
}

func parseRequest(c *gin.Context) (parsedRequest, *APIError) {
	var req parsedRequest

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return req, fromError(domain.NewInvalidInputError(domain.ErrInvalidTimelineID))
	}
	req.timelineID = id

	var body recalculateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			return req, &APIError{Status: http.StatusBadRequest, Code: "bad_request", Message: err.Error()}
		}
	}

	req.options = domain.Options{RespectLocks: true, Distribution: domain.Distribution(body.Distribution)}
	if body.RespectLocks != nil {
		req.options.RespectLocks = *body.RespectLocks
	}
	if body.Today != "" {
		if req.today, err = domain.ParseDate(body.Today); err != nil {
			return req, &APIError{Status: http.StatusBadRequest, Code: "bad_request", Message: err.Error()}
		}
	}
	return req, nil
}

// Recalculate handles POST /api/v1/timelines/:id/recalculate.
func (h *TimelineHandler) Recalculate(c *gin.Context) {
	req, apiErr := parseRequest(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	res, err := h.recalculate.Handle(c.Request.Context(), commands.RecalculateTimelineCommand{
		TimelineID: req.timelineID,
		Options:    req.options,
		Today:      req.today,
		Actor:      "api",
	})
	if err != nil {
		writeError(c, fromError(err))
		return
	}
	c.JSON(http.StatusOK, recalculateResponse{Success: true, Result: res})
}

// Preview handles POST /api/v1/timelines/:id/preview.
func (h *TimelineHandler) Preview(c *gin.Context) {
	req, apiErr := parseRequest(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	res, err := h.preview.Handle(c.Request.Context(), queries.PreviewRecalculationQuery{
		TimelineID: req.timelineID,
		Options:    req.options,
		Today:      req.today,
	})
	if err != nil {
		writeError(c, fromError(err))
		return
	}
	c.JSON(http.StatusOK, recalculateResponse{Success: true, Result: res})
}

// LastRecalculation handles GET /api/v1/timelines/:id/recalculations/last.
func (h *TimelineHandler) LastRecalculation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, fromError(domain.NewInvalidInputError(domain.ErrInvalidTimelineID)))
		return
	}

	summary, err := h.last.Handle(c.Request.Context(), queries.GetLastRecalculationQuery{TimelineID: id})
	if err != nil {
		writeError(c, fromError(err))
		return
	}
	c.JSON(http.StatusOK, summary)
}
