package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/sideline-stats-service/internal/model"
	"github.com/maxviazov/sideline-stats-service/internal/service"
	"github.com/maxviazov/sideline-stats-service/pkg/response"
)

type SquadHandler struct {
	svc service.SquadService
}

func NewSquadHandler(svc service.SquadService) *SquadHandler { return &SquadHandler{svc: svc} }

func (h *SquadHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/squads")
	{
		g.GET("", h.list)
		g.POST("", h.create)
		g.GET("/:id", h.getByID)
		g.PATCH("/:id", h.rename)
		g.DELETE("/:id", h.delete)
		g.POST("/:id/players", h.addPlayer)
		g.PATCH("/:id/players/:player_id", h.updatePlayer)
		g.DELETE("/:id/players/:player_id", h.removePlayer)
		g.GET("/:id/events", h.listEvents)
		g.POST("/:id/events", h.createEvent)
	}
	e := r.Group("/events")
	{
		e.DELETE("/:id", h.deleteEvent)
		e.PUT("/:id/attendance", h.setAttendance)
		e.POST("/:id/attendance/:player_id/toggle", h.toggleAttendance)
	}
}

type squadRequest struct {
	TeamName string `json:"teamName"`
}

type playerRequest struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

type eventRequest struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

type attendanceRequest struct {
	Attendance []model.PlayerAttendance `json:"attendance"`
}

func (h *SquadHandler) list(c *gin.Context) {
	squads, err := h.svc.ListSquads(c.Request.Context())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, squads)
}

func (h *SquadHandler) create(c *gin.Context) {
	var req squadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, "body", "must be a JSON object")
		return
	}
	sq, err := h.svc.CreateSquad(c.Request.Context(), req.TeamName)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, sq)
}

func (h *SquadHandler) getByID(c *gin.Context) {
	sq, err := h.svc.GetSquad(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, sq)
}

func (h *SquadHandler) rename(c *gin.Context) {
	var req squadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, "body", "must be a JSON object")
		return
	}
	sq, err := h.svc.RenameSquad(c.Request.Context(), c.Param("id"), req.TeamName)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, sq)
}

func (h *SquadHandler) delete(c *gin.Context) {
	if err := h.svc.DeleteSquad(c.Request.Context(), c.Param("id")); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SquadHandler) addPlayer(c *gin.Context) {
	var req playerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, "body", "must be a JSON object")
		return
	}
	p, err := h.svc.AddPlayer(c.Request.Context(), c.Param("id"), req.Name, req.Number)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, p)
}

func (h *SquadHandler) updatePlayer(c *gin.Context) {
	var req playerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, "body", "must be a JSON object")
		return
	}
	p, err := h.svc.UpdatePlayer(c.Request.Context(), c.Param("id"), c.Param("player_id"), req.Name, req.Number)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, p)
}

func (h *SquadHandler) removePlayer(c *gin.Context) {
	if err := h.svc.RemovePlayer(c.Request.Context(), c.Param("id"), c.Param("player_id")); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SquadHandler) listEvents(c *gin.Context) {
	events, err := h.svc.ListEvents(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, events)
}

func (h *SquadHandler) createEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, "body", "must be a JSON object")
		return
	}
	ev, err := h.svc.CreateEvent(c.Request.Context(), c.Param("id"), req.Name, req.Date)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, ev)
}

func (h *SquadHandler) deleteEvent(c *gin.Context) {
	if err := h.svc.DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SquadHandler) setAttendance(c *gin.Context) {
	var req attendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, "body", "must be a JSON object")
		return
	}
	ev, err := h.svc.SetAttendance(c.Request.Context(), c.Param("id"), req.Attendance)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, ev)
}

// toggleAttendance flips present (default) or injured, chosen by ?field=.
func (h *SquadHandler) toggleAttendance(c *gin.Context) {
	field := c.DefaultQuery("field", "present")
	ev, err := h.svc.ToggleAttendance(c.Request.Context(), c.Param("id"), c.Param("player_id"), field)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, ev)
}
