package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/sideline-stats-service/internal/repository"
)

// Pinger is the minimal contract needed from a store to check readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StorageChecker reports how much room the store has left.
type StorageChecker interface {
	Check(ctx context.Context, required int64) repository.SpaceCheck
}

// HealthHandler exposes liveness, readiness and storage endpoints.
type HealthHandler struct {
	repo    Pinger
	storage StorageChecker
}

func NewHealthHandler(repo Pinger, storage StorageChecker) *HealthHandler {
	return &HealthHandler{repo: repo, storage: storage}
}

// Liveness responds OK if the process is up; it doesn't check dependencies.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Readiness verifies the store answers.
func (h *HealthHandler) Readiness(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "no store"})
		return
	}
	if err := h.repo.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Storage returns the space check for a default-sized write.
func (h *HealthHandler) Storage(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusOK, repository.SpaceCheck{CanStore: true, Message: "Storage estimate not available - proceeding without check"})
		return
	}
	c.JSON(http.StatusOK, h.storage.Check(c.Request.Context(), repository.MinRequiredSpace))
}
