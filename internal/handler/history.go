package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/sideline-stats-service/internal/repository"
	"github.com/maxviazov/sideline-stats-service/internal/service"
	"github.com/maxviazov/sideline-stats-service/pkg/response"
)

// analyticsTimeout bounds the endpoints that scan the whole history.
const analyticsTimeout = 5 * time.Second

type HistoryHandler struct {
	svc service.HistoryService
}

func NewHistoryHandler(svc service.HistoryService) *HistoryHandler { return &HistoryHandler{svc: svc} }

func (h *HistoryHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/history")
	{
		g.GET("", h.list)
		g.DELETE("", h.clear)
		g.GET("/:id", h.getByID)
		g.DELETE("/:id", h.delete)
		g.GET("/:id/breakdown", h.breakdown)
		g.GET("/teams/:name", h.byTeam)
		g.GET("/teams/:name/summary", h.teamSummary)
		g.GET("/teams/:name/zones", h.shotZones)
	}
}

func (h *HistoryHandler) list(c *gin.Context) {
	// Atoi errors are ignored intentionally, as 0 is a valid default for limit/offset, handled by the service layer.
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	res, err := h.svc.List(c.Request.Context(), repository.Page{Limit: limit, Offset: offset})
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func (h *HistoryHandler) getByID(c *gin.Context) {
	m, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, m)
}

func (h *HistoryHandler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// clear requires confirm=true so a stray DELETE cannot wipe the history.
func (h *HistoryHandler) clear(c *gin.Context) {
	if !parseBoolQuery(c.Query("confirm")) {
		response.Invalid(c, "confirm", "must be true to clear the history")
		return
	}
	if err := h.svc.Clear(c.Request.Context()); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HistoryHandler) breakdown(c *gin.Context) {
	b, err := h.svc.Breakdown(c.Request.Context(), c.Param("id"), c.Query("view"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, b)
}

func (h *HistoryHandler) byTeam(c *gin.Context) {
	ms, err := h.svc.ByTeam(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, ms)
}

func (h *HistoryHandler) teamSummary(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), analyticsTimeout)
	defer cancel()
	sum, err := h.svc.TeamSummary(ctx, c.Param("name"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, sum)
}

func (h *HistoryHandler) shotZones(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), analyticsTimeout)
	defer cancel()
	res, err := h.svc.ShotZones(ctx, c.Param("name"), service.ShotQuery{From: c.Query("from"), To: c.Query("to")})
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}
