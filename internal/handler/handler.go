package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/maxviazov/sideline-stats-service/internal/service"
)

// Services bundles the use cases exposed over HTTP. A nil service leaves its routes unmounted.
type Services struct {
	Match   service.MatchService
	History service.HistoryService
	Squads  service.SquadService
	Backup  service.BackupService
}

// Register mounts all public routes on the given engine.
func Register(r *gin.Engine, repo Pinger, storage StorageChecker, svc Services) {
	h := NewHealthHandler(repo, storage)

	// Health probes
	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)

	api := r.Group(APIV1Prefix)
	{
		health := api.Group("/health")
		{
			health.GET("/live", h.Liveness)
			health.GET("/ready", h.Readiness)
			health.GET("/storage", h.Storage)
		}
		if svc.Match != nil {
			NewMatchHandler(svc.Match).Register(api)
		}
		if svc.History != nil {
			NewHistoryHandler(svc.History).Register(api)
		}
		if svc.Squads != nil {
			NewSquadHandler(svc.Squads).Register(api)
		}
		if svc.Backup != nil {
			NewBackupHandler(svc.Backup).Register(api)
		}
	}
}
