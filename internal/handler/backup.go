package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/sideline-stats-service/internal/service"
	"github.com/maxviazov/sideline-stats-service/pkg/response"
)

type BackupHandler struct {
	svc service.BackupService
}

func NewBackupHandler(svc service.BackupService) *BackupHandler { return &BackupHandler{svc: svc} }

func (h *BackupHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/backup")
	{
		g.GET("", h.export)
		g.POST("/import", h.importBackup)
		g.GET("/summary", h.summary)
		g.GET("/reminder", h.reminder)
		g.POST("/reminder/dismiss", h.dismiss)
	}
}

func (h *BackupHandler) export(c *gin.Context) {
	data, err := h.svc.Export(c.Request.Context())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, data.FileName()))
	c.IndentedJSON(http.StatusOK, data)
}

// importBackup reads the document from the raw body; a rejected document answers 400 with
// the same result shape as a successful import.
func (h *BackupHandler) importBackup(c *gin.Context) {
	mode, err := service.ParseImportMode(c.Query("mode"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	body := http.MaxBytesReader(c.Writer, c.Request.Body, MaxBackupBytes)
	res, err := h.svc.Import(c.Request.Context(), body, mode)
	if err != nil {
		status, _ := response.MapError(err)
		if status == http.StatusBadRequest {
			c.AbortWithStatusJSON(status, res)
			return
		}
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func (h *BackupHandler) summary(c *gin.Context) {
	sum, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	last, err := h.svc.LastBackup(c.Request.Context())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{
		"matchCount": sum.MatchCount,
		"squadCount": sum.SquadCount,
		"eventCount": sum.EventCount,
		"lastBackup": last,
	})
}

func (h *BackupHandler) reminder(c *gin.Context) {
	rem, err := h.svc.Reminder(c.Request.Context())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, rem)
}

func (h *BackupHandler) dismiss(c *gin.Context) {
	until, err := h.svc.DismissReminder(c.Request.Context())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{"dismissedUntil": until})
}
