package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/maxviazov/sideline-stats-service/internal/model"
	"github.com/maxviazov/sideline-stats-service/internal/repository"
)

const (
	// BackupVersion is the newest document version Import understands.
	BackupVersion = 1
	// AppName is stamped into every export.
	AppName = "Sideline IQ"

	lastBackupKey     = "last_backup"
	reminderKey       = "reminder_dismissed_until"
	isoLayout         = "2006-01-02T15:04:05.000Z07:00"
	defaultRemindDays = 14
)

// ErrInvalidBackup rejects a document before anything is written.
var ErrInvalidBackup = errors.New("invalid backup")

// BackupData is the export document.
type BackupData struct {
	Version          int                     `json:"version"`
	ExportDate       string                  `json:"exportDate"`
	AppName          string                  `json:"appName"`
	MatchHistory     []model.Match           `json:"matchHistory"`
	Squads           []model.Squad           `json:"squads"`
	AttendanceEvents []model.AttendanceEvent `json:"attendanceEvents"`
}

// FileName is the download name for the export, e.g. sideline-iq-backup-2025-03-01.json.
func (d BackupData) FileName() string {
	day := d.ExportDate
	if len(day) >= len(dateLayout) {
		day = day[:len(dateLayout)]
	}
	return "sideline-iq-backup-" + day + ".json"
}

// ImportMode selects how imported records meet existing ones.
type ImportMode string

const (
	// ImportMerge keeps existing data and skips records whose id is already stored.
	ImportMerge ImportMode = "merge"
	// ImportReplace clears matches, squads and events first.
	ImportReplace ImportMode = "replace"
)

// ParseImportMode accepts merge (the default) and replace.
func ParseImportMode(s string) (ImportMode, error) {
	switch ImportMode(s) {
	case "", ImportMerge:
		return ImportMerge, nil
	case ImportReplace:
		return ImportReplace, nil
	}
	return "", newInvalidInput([]FieldError{{Field: "mode", Message: "must be merge or replace"}})
}

// ImportResult counts what an import wrote. Errors lists per-record failures.
type ImportResult struct {
	Success         bool     `json:"success"`
	MatchesImported int      `json:"matchesImported"`
	SquadsImported  int      `json:"squadsImported"`
	EventsImported  int      `json:"eventsImported"`
	Skipped         int      `json:"skipped"`
	Errors          []string `json:"errors"`
}

// DataSummary counts the stored collections.
type DataSummary struct {
	MatchCount int `json:"matchCount"`
	SquadCount int `json:"squadCount"`
	EventCount int `json:"eventCount"`
}

// Reminder tells the UI whether to nag about backups.
type Reminder struct {
	Show            bool       `json:"show"`
	Message         string     `json:"message,omitempty"`
	LastBackup      *time.Time `json:"lastBackup,omitempty"`
	DaysSinceBackup *int       `json:"daysSinceBackup,omitempty"`
	DismissedUntil  *time.Time `json:"dismissedUntil,omitempty"`
}

type backupService struct {
	history    repository.MatchHistoryRepository
	squads     repository.SquadRepository
	events     repository.AttendanceRepository
	settings   repository.SettingsRepository
	guard      SpaceGuard
	remindDays int
	base
	log zerolog.Logger
}

func NewBackupService(store repository.Store, guard SpaceGuard, reminderDays int, logger zerolog.Logger, opts ...Option) BackupService {
	if reminderDays <= 0 {
		reminderDays = defaultRemindDays
	}
	l := logger.With().Str("module", "service").Str("component", "backup").Logger()
	return &backupService{
		history:    store.History,
		squads:     store.Squads,
		events:     store.Attendance,
		settings:   store.Settings,
		guard:      guard,
		remindDays: reminderDays,
		base:       newBase(opts),
		log:        l,
	}
}

// Export reads the three collections concurrently and records the backup date.
func (s *backupService) Export(ctx context.Context) (BackupData, error) {
	start := time.Now()
	out := BackupData{Version: BackupVersion, AppName: AppName}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.MatchHistory, err = s.history.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.Squads, err = s.squads.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.AttendanceEvents, err = s.events.ListAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Msg("export failed")
		return BackupData{}, fmt.Errorf("export data: %w", err)
	}

	now := s.now().UTC()
	out.ExportDate = now.Format(isoLayout)
	if err := s.settings.Set(ctx, lastBackupKey, out.ExportDate); err != nil {
		s.log.Warn().Err(err).Msg("record last backup date failed")
	}
	s.log.Info().
		Dur("took", time.Since(start)).
		Int("matches", len(out.MatchHistory)).
		Int("squads", len(out.Squads)).
		Int("events", len(out.AttendanceEvents)).
		Msg("data exported")
	return out, nil
}

// rawBackup keeps the records undecoded so that one bad record fails alone.
type rawBackup struct {
	Version          float64
	MatchHistory     []json.RawMessage
	Squads           []json.RawMessage
	AttendanceEvents []json.RawMessage
}

// Import validates the whole document first; a structural problem returns ErrInvalidBackup
// and writes nothing. After that each record is written on its own and failures are collected.
func (s *backupService) Import(ctx context.Context, r io.Reader, mode ImportMode) (ImportResult, error) {
	res := ImportResult{Errors: []string{}}
	data, err := io.ReadAll(r)
	if err != nil {
		return s.reject(res, "Failed to read backup file")
	}
	if !json.Valid(data) {
		return s.reject(res, "Invalid JSON file")
	}
	doc, ok := parseBackup(data)
	if !ok {
		return s.reject(res, "Invalid backup file format")
	}
	if doc.Version > BackupVersion {
		return s.reject(res, fmt.Sprintf("Backup version %s is newer than supported version %d",
			strconv.FormatFloat(doc.Version, 'f', -1, 64), BackupVersion))
	}

	if mode == ImportReplace {
		if err := s.clearAll(ctx); err != nil {
			s.log.Error().Err(err).Msg("clear before import failed")
			res.Errors = append(res.Errors, "Failed to clear existing data")
		}
	}

	for _, raw := range doc.MatchHistory {
		s.importMatch(ctx, raw, mode, &res)
	}
	for _, raw := range doc.Squads {
		s.importSquad(ctx, raw, mode, &res)
	}
	for _, raw := range doc.AttendanceEvents {
		s.importEvent(ctx, raw, mode, &res)
	}

	res.Success = len(res.Errors) == 0
	if res.Success {
		if err := s.settings.Set(ctx, lastBackupKey, s.now().UTC().Format(isoLayout)); err != nil {
			s.log.Warn().Err(err).Msg("record last backup date failed")
		}
	}
	s.log.Info().
		Str("mode", string(mode)).
		Int("matches", res.MatchesImported).
		Int("squads", res.SquadsImported).
		Int("events", res.EventsImported).
		Int("skipped", res.Skipped).
		Int("errors", len(res.Errors)).
		Msg("import finished")
	return res, nil
}

func (s *backupService) reject(res ImportResult, msg string) (ImportResult, error) {
	res.Errors = append(res.Errors, msg)
	s.log.Warn().Str("reason", msg).Msg("backup rejected")
	return res, fmt.Errorf("%w: %s", ErrInvalidBackup, msg)
}

// parseBackup checks the top-level shape: a numeric version and three arrays.
func parseBackup(data []byte) (rawBackup, bool) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || top == nil {
		return rawBackup{}, false
	}
	var doc rawBackup
	v, ok := top["version"]
	if !ok || !isJSONNumber(v) || json.Unmarshal(v, &doc.Version) != nil {
		return rawBackup{}, false
	}
	arrays := []struct {
		key string
		dst *[]json.RawMessage
	}{
		{"matchHistory", &doc.MatchHistory},
		{"squads", &doc.Squads},
		{"attendanceEvents", &doc.AttendanceEvents},
	}
	for _, a := range arrays {
		raw, ok := top[a.key]
		if !ok || !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
			return rawBackup{}, false
		}
		if err := json.Unmarshal(raw, a.dst); err != nil {
			return rawBackup{}, false
		}
	}
	return doc, true
}

func isJSONNumber(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	c := raw[0]
	return c == '-' || (c >= '0' && c <= '9')
}

func (s *backupService) clearAll(ctx context.Context) error {
	if err := s.history.Clear(ctx); err != nil {
		return err
	}
	return s.squads.Clear(ctx)
}

func (s *backupService) importMatch(ctx context.Context, raw json.RawMessage, mode ImportMode, res *ImportResult) {
	var head struct {
		HomeTeam string `json:"homeTeam"`
		AwayTeam string `json:"awayTeam"`
	}
	_ = json.Unmarshal(raw, &head)
	fail := func(err error) {
		s.log.Debug().Err(err).Msg("match import failed")
		res.Errors = append(res.Errors, fmt.Sprintf("Failed to import match: %s vs %s", head.HomeTeam, head.AwayTeam))
	}

	m, err := model.DecodeMatch(raw)
	if err != nil || m == nil {
		fail(err)
		return
	}
	if skip, err := s.skip(ctx, mode, m.ID, s.history.Exists); err != nil {
		fail(err)
		return
	} else if skip {
		res.Skipped++
		return
	}
	if err := s.save(ctx, raw, func() error { return s.history.Save(ctx, *m) }); err != nil {
		fail(err)
		return
	}
	res.MatchesImported++
}

func (s *backupService) importSquad(ctx context.Context, raw json.RawMessage, mode ImportMode, res *ImportResult) {
	var sq model.Squad
	err := json.Unmarshal(raw, &sq)
	fail := func(err error) {
		s.log.Debug().Err(err).Msg("squad import failed")
		res.Errors = append(res.Errors, fmt.Sprintf("Failed to import squad: %s", sq.TeamName))
	}
	if err != nil || sq.ID == "" {
		fail(err)
		return
	}
	if sq.Players == nil {
		sq.Players = []model.Player{}
	}
	if skip, err := s.skip(ctx, mode, sq.ID, s.squads.Exists); err != nil {
		fail(err)
		return
	} else if skip {
		res.Skipped++
		return
	}
	if err := s.save(ctx, raw, func() error { return s.squads.Save(ctx, sq) }); err != nil {
		fail(err)
		return
	}
	res.SquadsImported++
}

func (s *backupService) importEvent(ctx context.Context, raw json.RawMessage, mode ImportMode, res *ImportResult) {
	var ev model.AttendanceEvent
	err := json.Unmarshal(raw, &ev)
	fail := func(err error) {
		s.log.Debug().Err(err).Msg("event import failed")
		res.Errors = append(res.Errors, fmt.Sprintf("Failed to import event: %s", ev.Name))
	}
	if err != nil || ev.ID == "" {
		fail(err)
		return
	}
	if ev.Attendance == nil {
		ev.Attendance = []model.PlayerAttendance{}
	}
	if skip, err := s.skip(ctx, mode, ev.ID, s.events.Exists); err != nil {
		fail(err)
		return
	} else if skip {
		res.Skipped++
		return
	}
	if err := s.save(ctx, raw, func() error { return s.events.Save(ctx, ev) }); err != nil {
		fail(err)
		return
	}
	res.EventsImported++
}

func (s *backupService) skip(ctx context.Context, mode ImportMode, id string, exists func(context.Context, string) (bool, error)) (bool, error) {
	if mode != ImportMerge {
		return false, nil
	}
	return exists(ctx, id)
}

func (s *backupService) save(ctx context.Context, raw json.RawMessage, write func() error) error {
	if s.guard != nil {
		if err := s.guard.Ensure(ctx, int64(len(raw))); err != nil {
			return err
		}
	}
	return write()
}

// Summary counts the three collections concurrently.
func (s *backupService) Summary(ctx context.Context) (DataSummary, error) {
	var out DataSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.MatchCount, err = s.history.Count(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.SquadCount, err = s.squads.Count(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.EventCount, err = s.events.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return DataSummary{}, fmt.Errorf("data summary: %w", err)
	}
	return out, nil
}

func (s *backupService) LastBackup(ctx context.Context) (*time.Time, error) {
	return s.timeSetting(ctx, lastBackupKey)
}

// Reminder is shown when there is data and it was never backed up, or the last backup is
// at least the configured number of days old, unless the user dismissed it recently.
func (s *backupService) Reminder(ctx context.Context) (Reminder, error) {
	sum, err := s.Summary(ctx)
	if err != nil {
		return Reminder{}, err
	}
	if sum.MatchCount == 0 && sum.SquadCount == 0 {
		return Reminder{}, nil
	}
	now := s.now()

	until, err := s.timeSetting(ctx, reminderKey)
	if err != nil {
		return Reminder{}, err
	}
	if until != nil && until.After(now) {
		return Reminder{DismissedUntil: until}, nil
	}

	last, err := s.LastBackup(ctx)
	if err != nil {
		return Reminder{}, err
	}
	if last == nil {
		return Reminder{Show: true, Message: "You haven't backed up your data yet. Protect your data!"}, nil
	}
	days := int(now.Sub(*last) / (24 * time.Hour))
	rem := Reminder{LastBackup: last, DaysSinceBackup: &days}
	if days >= s.remindDays {
		rem.Show = true
		rem.Message = fmt.Sprintf("Your last backup was %d days ago. Time to backup your data!", days)
	}
	return rem, nil
}

// DismissReminder hides the reminder for the configured number of days.
func (s *backupService) DismissReminder(ctx context.Context) (time.Time, error) {
	until := s.now().UTC().AddDate(0, 0, s.remindDays)
	if err := s.settings.Set(ctx, reminderKey, until.Format(isoLayout)); err != nil {
		return time.Time{}, err
	}
	return until, nil
}

func (s *backupService) timeSetting(ctx context.Context, key string) (*time.Time, error) {
	v, err := s.settings.Get(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("unreadable stored date ignored")
		return nil, nil
	}
	return &t, nil
}
