package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// MinRequiredSpace is what a check asks for when the caller does not know the size.
const MinRequiredSpace int64 = 1 << 20

const mb = 1024 * 1024

// StorageEstimate describes the store against its configured quota.
type StorageEstimate struct {
	Quota       int64 `json:"quota"`
	Usage       int64 `json:"usage"`
	Available   int64 `json:"available"`
	PercentUsed int   `json:"percentUsed"`
}

// SpaceCheck is the verdict for a pending write.
type SpaceCheck struct {
	CanStore bool             `json:"canStore"`
	Message  string           `json:"message"`
	Estimate *StorageEstimate `json:"estimate,omitempty"`
}

// SpaceGuard refuses writes that would not fit in the quota. A zero quota or a store that
// cannot report usage disables the check.
type SpaceGuard struct {
	usage UsageReporter
	quota int64
	log   zerolog.Logger
}

// NewSpaceGuard builds a guard over the given usage source.
func NewSpaceGuard(usage UsageReporter, quota int64, logger zerolog.Logger) *SpaceGuard {
	l := logger.With().Str("module", "repository").Str("component", "space_guard").Logger()
	return &SpaceGuard{usage: usage, quota: quota, log: l}
}

// EstimateSize is the encoded size of v in bytes; unencodable values count as MinRequiredSpace.
func EstimateSize(v any) int64 {
	raw, err := json.Marshal(v)
	if err != nil {
		return MinRequiredSpace
	}
	return int64(len(raw))
}

// Estimate returns nil when no estimate is available.
func (g *SpaceGuard) Estimate(ctx context.Context) *StorageEstimate {
	if g == nil || g.quota <= 0 || g.usage == nil {
		return nil
	}
	used, err := g.usage.Usage(ctx)
	if err != nil {
		g.log.Warn().Err(err).Msg("storage usage unavailable")
		return nil
	}
	est := &StorageEstimate{Quota: g.quota, Usage: used, Available: g.quota - used}
	est.PercentUsed = int((2*100*used + g.quota) / (2 * g.quota))
	return est
}

// Check reports whether required bytes fit. required <= 0 means MinRequiredSpace.
func (g *SpaceGuard) Check(ctx context.Context, required int64) SpaceCheck {
	if required <= 0 {
		required = MinRequiredSpace
	}
	est := g.Estimate(ctx)
	switch {
	case est == nil:
		return SpaceCheck{CanStore: true, Message: "Storage estimate not available - proceeding without check"}
	case est.Available < required:
		return SpaceCheck{
			CanStore: false,
			Message: fmt.Sprintf("Insufficient storage space. Available: %.2fMB, Required: %.2fMB. Please free up some space.",
				float64(est.Available)/mb, float64(required)/mb),
			Estimate: est,
		}
	case est.PercentUsed > 99:
		return SpaceCheck{
			CanStore: true,
			Message:  fmt.Sprintf("Warning: Storage is %d%% full. Consider backing up and clearing old data.", est.PercentUsed),
			Estimate: est,
		}
	default:
		return SpaceCheck{CanStore: true, Message: "Sufficient storage space available", Estimate: est}
	}
}

// Ensure turns a failed Check into an error wrapping ErrInsufficientStorage.
func (g *SpaceGuard) Ensure(ctx context.Context, required int64) error {
	res := g.Check(ctx, required)
	if !res.CanStore {
		g.log.Warn().Int64("required", required).Msg(res.Message)
		return fmt.Errorf("%w: %s", ErrInsufficientStorage, res.Message)
	}
	if res.Estimate != nil && res.Estimate.PercentUsed > 99 {
		g.log.Warn().Int("percent_used", res.Estimate.PercentUsed).Msg(res.Message)
	}
	return nil
}
