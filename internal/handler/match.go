package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/maxviazov/sideline-stats-service/internal/service"
	"github.com/maxviazov/sideline-stats-service/pkg/response"
)

// parseBoolQuery is a helper to flexibly parse boolean-like query parameters.
func parseBoolQuery(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1"
}

type MatchHandler struct {
	svc service.MatchService
}

func NewMatchHandler(svc service.MatchService) *MatchHandler { return &MatchHandler{svc: svc} }

func (h *MatchHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/match")
	{
		g.GET("", h.current)
		g.POST("", h.start)
		g.DELETE("", h.abandon)
		g.POST("/events", h.record)
		g.POST("/undo", h.undo)
		g.GET("/last-action", h.lastAction)
		g.POST("/half-time", h.halfTime)
		g.POST("/full-time", h.fullTime)
		g.GET("/breakdown", h.breakdown)
		g.GET("/timeline", h.timeline)
	}
}

type startMatchRequest struct {
	HomeTeam      string `json:"homeTeam"`
	AwayTeam      string `json:"awayTeam"`
	Date          string `json:"date"`
	TrackShots    *bool  `json:"trackShots"`
	TrackKickouts *bool  `json:"trackKickouts"`
	Force         bool   `json:"force"`
}

// boolOr reads an optional flag; location tracking is on unless switched off.
func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func (h *MatchHandler) current(c *gin.Context) {
	m, err := h.svc.Current(c.Request.Context())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, m)
}

func (h *MatchHandler) start(c *gin.Context) {
	var req startMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, "body", "must be a JSON object")
		return
	}
	m, err := h.svc.Start(c.Request.Context(), service.StartMatchInput{
		HomeTeam:      req.HomeTeam,
		AwayTeam:      req.AwayTeam,
		Date:          req.Date,
		TrackShots:    boolOr(req.TrackShots, true),
		TrackKickouts: boolOr(req.TrackKickouts, true),
		Force:         req.Force || parseBoolQuery(c.Query("force")),
	})
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, m)
}

func (h *MatchHandler) abandon(c *gin.Context) {
	if err := h.svc.Abandon(c.Request.Context()); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type recordRequest struct {
	Team      string   `json:"team"`
	EventType string   `json:"eventType"`
	X         *float64 `json:"x"`
	Y         *float64 `json:"y"`
}

func (h *MatchHandler) record(c *gin.Context) {
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, "body", "must be a JSON object")
		return
	}
	res, err := h.svc.Record(c.Request.Context(), service.RecordInput{
		Team:      req.Team,
		EventType: req.EventType,
		X:         req.X,
		Y:         req.Y,
	})
	if err != nil {
		response.WriteError(c, err)
		return
	}
	status := http.StatusCreated
	if !res.Applied {
		status = http.StatusOK
	}
	response.WriteData(c, status, res)
}

func (h *MatchHandler) undo(c *gin.Context) {
	res, err := h.svc.Undo(c.Request.Context())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func (h *MatchHandler) lastAction(c *gin.Context) {
	a, err := h.svc.LastAction(c.Request.Context())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	if a == nil {
		c.Status(http.StatusNoContent)
		return
	}
	response.WriteData(c, http.StatusOK, a)
}

func (h *MatchHandler) halfTime(c *gin.Context) {
	res, err := h.svc.HalfTime(c.Request.Context())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

type fullTimeResponse struct {
	service.TransitionResult
	Warning string `json:"warning,omitempty"`
}

// fullTime still answers 200 when the match finished but could not be filed; the
// finished match stays in the working slot and is filed by the next start.
func (h *MatchHandler) fullTime(c *gin.Context) {
	res, err := h.svc.FullTime(c.Request.Context())
	if err != nil && !res.Applied {
		response.WriteError(c, err)
		return
	}
	out := fullTimeResponse{TransitionResult: res}
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("finished match not filed to history")
		out.Warning = "match finished but could not be saved to history"
	}
	response.WriteData(c, http.StatusOK, out)
}

func (h *MatchHandler) breakdown(c *gin.Context) {
	b, err := h.svc.Breakdown(c.Request.Context(), c.Query("view"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, b)
}

func (h *MatchHandler) timeline(c *gin.Context) {
	entries, err := h.svc.Timeline(c.Request.Context(), c.Query("filter"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, entries)
}
