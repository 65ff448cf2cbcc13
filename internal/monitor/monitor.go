package monitor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ghiro/autoupload/internal/config"
	"github.com/ghiro/autoupload/internal/core"
	"github.com/ghiro/autoupload/internal/scanner"
	"github.com/ghiro/autoupload/pkg/fsx"
	"github.com/ghiro/autoupload/pkg/logx"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// CycleStats summarizes one polling cycle.
type CycleStats struct {
	Discovered int // files not seen before
	Submitted  int
	Skipped    int // files outside a known case directory
	Failed     int // failed submissions
	Deleted    int // originals removed after submission
	Forgotten  int // seen paths that no longer exist
	Errors     int // walk errors
}

func (s CycleStats) MarshalZerologObject(e *zerolog.Event) {
	e.Int("discovered", s.Discovered).
		Int("submitted", s.Submitted).
		Int("skipped", s.Skipped).
		Int("failed", s.Failed).
		Int("deleted", s.Deleted).
		Int("forgotten", s.Forgotten).
		Int("errors", s.Errors)
}

// Monitor polls a watch root and submits new files found in case directories.
// Its methods must be called from a single goroutine.
type Monitor struct {
	id        string
	cfg       config.MonitorConfig
	root      string
	registry  core.CaseRegistry
	submitter core.Submitter
	scanner   core.Scanner
	schedule  cron.Schedule
	seen      *seenSet
}

// Info returns the monitor id.
func (m *Monitor) Info() string {
	return m.id
}

// Root returns the absolute watch root.
func (m *Monitor) Root() string {
	return m.root
}

// Bootstrap prepares the watch root: optional cleanup, creation of the root and of one
// directory per known case. Failing to create a single case directory is logged and skipped.
func (m *Monitor) Bootstrap(ctx context.Context) error {
	logx.As().Debug().
		Str("monitor", m.id).
		Str("path", m.root).
		Msg("Preparing watch root")

	if m.cfg.StartupCleanup {
		if _, exists := fsx.PathExists(m.root); exists {
			logx.As().Debug().Str("path", m.root).Msg("Cleaning up watch root")
			if err := os.RemoveAll(m.root); err != nil {
				logx.As().Error().Err(err).Str("path", m.root).Msg("Unable to clean watch root")
				return fmt.Errorf("failed to clean watch root %s: %w", m.root, err)
			}
		}
	}

	if _, exists := fsx.PathExists(m.root); !exists {
		logx.As().Debug().Str("path", m.root).Msg("Watch root is missing, creating it")
		if err := os.MkdirAll(m.root, 0755); err != nil {
			logx.As().Error().Err(err).Str("path", m.root).Msg("Unable to create watch root")
			return fmt.Errorf("failed to create watch root %s: %w", m.root, err)
		}
	}

	cases, err := m.registry.ListCases(ctx)
	if err != nil {
		logx.As().Error().Err(err).Str("monitor", m.id).Msg("Unable to list cases")
		return fmt.Errorf("failed to list cases: %w", err)
	}

	for _, c := range cases {
		dir := filepath.Join(m.root, c.DirectoryName())
		if _, exists := fsx.PathExists(dir); exists {
			continue
		}

		logx.As().Debug().Str("path", dir).Int64("case_id", c.ID).Msg("Creating case directory")
		if err := os.Mkdir(dir, 0755); err != nil {
			logx.As().Error().Err(err).
				Str("path", dir).
				Int64("case_id", c.ID).
				Msg("Unable to create case directory")
			continue
		}
	}

	return nil
}

// ParseDirName resolves the case owning dir from its trailing Case_id_<id> component.
func (m *Monitor) ParseDirName(ctx context.Context, dir string) core.CaseLookup {
	id, ok, matched := core.ParseCaseDirName(dir)
	if !matched {
		return core.CaseLookup{Status: core.LookupNoMatch}
	}
	if !ok {
		return core.CaseLookup{Status: core.LookupNotFound}
	}

	c, err := m.registry.GetCase(ctx, id)
	if err != nil {
		if !errors.Is(err, core.ErrCaseNotFound) {
			logx.As().Error().Err(err).
				Str("path", dir).
				Int64("case_id", id).
				Msg("Failed to look up case")
		}
		return core.CaseLookup{Status: core.LookupNotFound, CaseID: id}
	}

	return core.CaseLookup{Status: core.LookupFound, CaseID: id, Case: c}
}

// Submit hands path to the submitter on behalf of the case owner and, if configured,
// removes the original according to the delete policy.
func (m *Monitor) Submit(ctx context.Context, path string, c *core.Case) error {
	_, err := m.submit(ctx, path, c)
	return err
}

func (m *Monitor) submit(ctx context.Context, path string, c *core.Case) (deleted bool, err error) {
	_, err = m.submitter.Submit(ctx, path, c, c.Owner)
	if err != nil {
		logx.As().Error().Err(err).
			Str("path", path).
			Int64("case_id", c.ID).
			Msg("Failed to submit file")
		err = fmt.Errorf("failed to submit %s: %w", path, err)
	}

	if !m.cfg.DeleteOriginal {
		return false, err
	}
	if err != nil && m.cfg.DeletePolicy == config.DeletePolicyOnSuccess {
		logx.As().Warn().Str("path", path).Msg("Submission failed, keeping original file")
		return false, err
	}

	if rmErr := os.Remove(path); rmErr != nil {
		logx.As().Error().Err(rmErr).Str("path", path).Msg("Failed to remove original file")
		return false, err
	}

	logx.As().Debug().Str("path", path).Msg("Removed original file")
	return true, err
}

// Cycle runs one polling pass: it submits unseen files, then forgets seen paths that no
// longer exist.
func (m *Monitor) Cycle(ctx context.Context) CycleStats {
	var stats CycleStats

	// the scanner reports at most one error, after the last result
	ech := make(chan error, 1)
	for item := range m.scanner.Scan(ctx, ech) {
		if m.seen.Has(item.Path) {
			continue
		}
		m.process(ctx, item.Path, &stats)
	}

	select {
	case err := <-ech:
		logx.As().Warn().Err(err).Str("monitor", m.id).Msg("Watch root walk did not complete")
		stats.Errors++
	default:
	}

	stats.Forgotten = m.forgetMissing()
	return stats
}

func (m *Monitor) process(ctx context.Context, path string, stats *CycleStats) {
	stats.Discovered++
	traceId := uuid.NewString()
	logx.As().Info().
		Str("monitor", m.id).
		Str("path", path).
		Str("trace_id", traceId).
		Msg("Found new file")

	lookup := m.ParseDirName(ctx, filepath.Dir(path))
	switch lookup.Status {
	case core.LookupFound:
		deleted, err := m.submit(core.WithTraceId(ctx, traceId), path, lookup.Case)
		if err != nil {
			stats.Failed++
		} else {
			stats.Submitted++
			logx.As().Info().
				Str("path", path).
				Str("trace_id", traceId).
				Int64("case_id", lookup.CaseID).
				Msg("File submitted")
		}
		if deleted {
			stats.Deleted++
		}
	case core.LookupNotFound:
		stats.Skipped++
		logx.As().Warn().
			Str("path", path).
			Str("trace_id", traceId).
			Int64("case_id", lookup.CaseID).
			Msg("No such case, ignoring file")
	default:
		stats.Skipped++
		logx.As().Debug().
			Str("path", path).
			Str("trace_id", traceId).
			Msg("File is not in a case directory, ignoring it")
	}

	m.seen.Add(path)
}

// forgetMissing removes from the seen set every path that no longer exists.
func (m *Monitor) forgetMissing() int {
	var missing []string
	for _, p := range m.seen.Snapshot() {
		if _, exists := fsx.PathExists(p); !exists {
			missing = append(missing, p)
		}
	}

	for _, p := range missing {
		m.seen.Remove(p)
	}

	return len(missing)
}

// Run bootstraps the watch root and polls it until ctx is cancelled. A bootstrap failure
// is logged and polling starts anyway.
func (m *Monitor) Run(ctx context.Context) error {
	logx.As().Info().
		Str("monitor", m.id).
		Str("path", m.root).
		Msg("Monitoring directory")

	if err := m.Bootstrap(ctx); err != nil {
		logx.As().Warn().Err(err).Str("monitor", m.id).Msg("Bootstrap failed, polling anyway")
	}

	for {
		start := time.Now()
		stats := m.Cycle(ctx)
		logx.As().Debug().
			Str("monitor", m.id).
			Object("stats", stats).
			Int("seen", m.seen.Len()).
			Dur("took", time.Since(start)).
			Msg("Polling cycle completed")

		if ctx.Err() != nil {
			break
		}

		now := time.Now()
		if !core.ApplyDelay(ctx, m.schedule.Next(now).Sub(now)) {
			break
		}
	}

	logx.As().Info().Str("monitor", m.id).Msg("Monitor stopped")
	return nil
}

// NewMonitor creates a monitor for the watch root of mc.
//
// Parameters:
//   - id: A unique identifier for the monitor instance.
//   - mc: The monitor configuration; it is validated, so an empty watch root yields config.ErrMissingWatchRoot.
//   - registry: The source of cases.
//   - submitter: The analysis intake receiving new files.
func NewMonitor(id string, mc config.MonitorConfig, registry core.CaseRegistry, submitter core.Submitter) (*Monitor, error) {
	if err := config.ValidateMonitorConfig(mc); err != nil {
		return nil, err
	}

	schedule, err := NewSchedule(mc.Interval, mc.Schedule)
	if err != nil {
		return nil, err
	}

	s, err := scanner.NewScanner(id+"-scanner", mc.WatchRoot, mc.BatchSize, mc.IgnorePatterns)
	if err != nil {
		return nil, err
	}

	return newMonitor(id, mc, registry, submitter, s, schedule), nil
}

func newMonitor(id string, mc config.MonitorConfig, registry core.CaseRegistry, submitter core.Submitter,
	s core.Scanner, schedule cron.Schedule) *Monitor {
	return &Monitor{
		id:        id,
		cfg:       mc,
		root:      s.Root(),
		registry:  registry,
		submitter: submitter,
		scanner:   s,
		schedule:  schedule,
		seen:      newSeenSet(),
	}
}
