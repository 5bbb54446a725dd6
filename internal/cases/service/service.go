// Package service orchestrates the case pipeline: prepare (zone repair and
// export), simulate (external subprocess), analyze (aggregate simulated and
// observed series, evaluate accuracy). Stages advance the case state machine
// and every transition leaves an audit event.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"calibra/internal/analysis"
	"calibra/internal/audit"
	"calibra/internal/cases"
	"calibra/internal/cases/runlock"
	"calibra/internal/detector"
	"calibra/internal/platform/metrics"
	"calibra/internal/series"
	"calibra/internal/sim"
	"calibra/internal/zone"
	domainerrors "calibra/pkg/domain-errors"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// Stage names recorded on failures and metrics.
const (
	StagePrepare  = "prepare"
	StageSimulate = "simulate"
	StageAnalyze  = "analyze"
)

// SimulatedSource produces the simulated station series from a simulator
// output directory.
type SimulatedSource interface {
	Aggregate(ctx context.Context, outputDir string, defs []detector.Definition) (series.Series, int, error)
}

// ObservedSource produces the observed station series for a station set and
// time window.
type ObservedSource interface {
	Align(ctx context.Context, stations []string, start, end time.Time) (series.Series, error)
}

// AuditTrail receives one event per lifecycle transition.
type AuditTrail interface {
	Emit(event audit.Event)
}

// Service drives case lifecycles. One Run executes the stages of a single
// case strictly in order; distinct cases run concurrently, each under its
// own run lock.
type Service struct {
	store      cases.Store
	locker     runlock.Locker
	runner     sim.Runner
	simulated  SimulatedSource
	observed   ObservedSource
	thresholds analysis.Thresholds

	metrics *metrics.Metrics
	audit   AuditTrail
	tracer  trace.Tracer
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithThresholds overrides the default anomaly thresholds.
func WithThresholds(t analysis.Thresholds) Option {
	return func(s *Service) { s.thresholds = t }
}

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAudit attaches the transition audit trail.
func WithAudit(trail AuditTrail) Option {
	return func(s *Service) { s.audit = trail }
}

// WithLogger injects a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService wires the pipeline collaborators together.
func NewService(store cases.Store, locker runlock.Locker, runner sim.Runner,
	simulated SimulatedSource, observed ObservedSource, opts ...Option) *Service {
	s := &Service{
		store:      store,
		locker:     locker,
		runner:     runner,
		simulated:  simulated,
		observed:   observed,
		thresholds: analysis.DefaultThresholds(),
		tracer:     otel.Tracer("calibra/cases"),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput is the caller-supplied part of a new case.
type CreateInput struct {
	Name        string
	Description string
	TimeRange   cases.TimeRange
	Config      map[string]any
	Files       map[string]string
}

// Create registers a new case in CREATED.
func (s *Service) Create(ctx context.Context, input CreateInput) (cases.Case, error) {
	c, err := cases.New(input.Name, input.Description, input.TimeRange, input.Config, input.Files)
	if err != nil {
		return cases.Case{}, err
	}
	if err := s.store.Create(ctx, c); err != nil {
		return cases.Case{}, err
	}
	s.logger.Info("case created", "case_id", c.ID, "name", c.Name)
	return c, nil
}

// Get loads one case.
func (s *Service) Get(ctx context.Context, id string) (cases.Case, error) {
	return s.store.Get(ctx, id)
}

// List returns all cases in creation order.
func (s *Service) List(ctx context.Context) ([]cases.Case, error) {
	return s.store.List(ctx)
}

// Run executes the full pipeline for one case and blocks until it reaches a
// terminal state. A concurrent run of the same case is rejected with a
// Conflict error.
func (s *Service) Run(ctx context.Context, caseID string) error {
	c, release, err := s.claim(ctx, caseID)
	if err != nil {
		return err
	}
	defer release()
	return s.run(ctx, c)
}

// StartRun claims the case synchronously, then executes the pipeline in the
// background, detached from the caller's request context. The error reports
// only claim failures (unknown case, not runnable, already running).
func (s *Service) StartRun(ctx context.Context, caseID string) error {
	c, release, err := s.claim(ctx, caseID)
	if err != nil {
		return err
	}
	go func() {
		defer release()
		if err := s.run(context.Background(), c); err != nil {
			s.logger.Error("pipeline run failed", "case_id", c.ID, "error", err)
		}
	}()
	return nil
}

func (s *Service) claim(ctx context.Context, caseID string) (cases.Case, func(), error) {
	c, err := s.store.Get(ctx, caseID)
	if err != nil {
		return cases.Case{}, nil, err
	}
	if c.Status != cases.StatusCreated {
		return cases.Case{}, nil, domainerrors.Newf(domainerrors.CodeConflict,
			"case %s is %s, only CREATED cases can be run", c.ID, c.Status)
	}
	release, err := s.locker.Acquire(ctx, caseID)
	if err != nil {
		if domainerrors.HasCode(err, domainerrors.CodeConflict) && s.metrics != nil {
			s.metrics.RunsRejected.Inc()
		}
		return cases.Case{}, nil, err
	}
	return c, release, nil
}

func (s *Service) run(ctx context.Context, c cases.Case) error {
	if s.metrics != nil {
		s.metrics.RunsStarted.Inc()
	}
	s.logger.Info("pipeline run started", "case_id", c.ID)

	c, err := s.advance(ctx, c, cases.StatusProcessing, cases.TransitionUpdate{})
	if err != nil {
		return err
	}

	prep, err := s.stagePrepare(ctx, c)
	if err != nil {
		return s.fail(ctx, c, StagePrepare, err)
	}
	c, err = s.advance(ctx, c, cases.StatusSimulating, cases.TransitionUpdate{
		Statistics: prep.Statistics,
		Files:      prep.Files,
	})
	if err != nil {
		return err
	}

	if err := s.stageSimulate(ctx, c); err != nil {
		return s.fail(ctx, c, StageSimulate, err)
	}
	c, err = s.advance(ctx, c, cases.StatusAnalyzing, cases.TransitionUpdate{})
	if err != nil {
		return err
	}

	result, stats, err := s.stageAnalyze(ctx, c)
	if err != nil {
		return s.fail(ctx, c, StageAnalyze, err)
	}
	c, err = s.advance(ctx, c, cases.StatusCompleted, cases.TransitionUpdate{
		Statistics: stats,
		Summary:    &result.Summary,
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RunsCompleted.Inc()
	}
	s.logger.Info("pipeline run completed", "case_id", c.ID,
		"records", result.Summary.Records, "anomalies", result.Summary.AnomalyCount)
	return nil
}

type prepareOutcome struct {
	Statistics map[string]any
	Files      map[string]string
}

// stagePrepare repairs the zone topology and exports the validated TAZ
// artifact the simulator consumes.
func (s *Service) stagePrepare(ctx context.Context, c cases.Case) (prepareOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.prepare")
	defer span.End()
	defer s.observeStage(StagePrepare, time.Now())

	files := copyFiles(c.Files)
	for _, key := range []string{cases.FileTAZ, cases.FileSimConfig, cases.FileDetectorConfig, cases.FileOutputDir, cases.FileResultsDir} {
		if files[key] == "" {
			return prepareOutcome{}, domainerrors.Newf(domainerrors.CodeValidation, "case file %q is not set", key)
		}
	}

	zones, err := zone.ParseFile(files[cases.FileTAZ])
	if err != nil {
		return prepareOutcome{}, err
	}

	hints := zone.RoleMap{}
	if path := files[cases.FileRoleMap]; path != "" {
		if hints, err = zone.ParseRoleMapFile(path); err != nil {
			return prepareOutcome{}, err
		}
	}

	resolved, report := zone.Resolve(zones, hints)
	if err := zone.Validate(resolved); err != nil {
		return prepareOutcome{}, err
	}

	fixed := files[cases.FileTAZFixed]
	if fixed == "" {
		base := files[cases.FileTAZ]
		fixed = base[:len(base)-len(filepath.Ext(base))] + "_fixed.xml"
		files[cases.FileTAZFixed] = fixed
	}
	if err := zone.WriteFile(fixed, resolved); err != nil {
		return prepareOutcome{}, err
	}

	for _, dir := range []string{files[cases.FileOutputDir], files[cases.FileResultsDir]} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return prepareOutcome{}, fmt.Errorf("create pipeline directory: %w", err)
		}
	}

	s.logger.Info("zone topology resolved", "case_id", c.ID,
		"zones", len(resolved), "duplicates", len(report.DuplicateIDs),
		"paired", report.Paired, "errors", report.ErrorCount())

	return prepareOutcome{
		Statistics: map[string]any{
			"zones_input":     report.Input,
			"zones_resolved":  len(resolved),
			"zone_duplicates": len(report.DuplicateIDs),
			"zone_paired":     report.Paired,
			"zone_errors":     report.ErrorCount(),
		},
		Files: files,
	}, nil
}

// stageSimulate hands the case to the external simulator and waits for it.
func (s *Service) stageSimulate(ctx context.Context, c cases.Case) error {
	ctx, span := s.tracer.Start(ctx, "pipeline.simulate")
	defer span.End()
	defer s.observeStage(StageSimulate, time.Now())

	return s.runner.Run(ctx, sim.Invocation{
		ConfigPath: c.Files[cases.FileSimConfig],
		WorkDir:    filepath.Dir(c.Files[cases.FileSimConfig]),
		OutputDir:  c.Files[cases.FileOutputDir],
	})
}

// stageAnalyze aggregates the simulated output and the observed counts in
// parallel, evaluates accuracy, and writes the result artifacts.
func (s *Service) stageAnalyze(ctx context.Context, c cases.Case) (analysis.Result, map[string]any, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.analyze")
	defer span.End()
	defer s.observeStage(StageAnalyze, time.Now())

	defs, err := detector.ParseDefinitionsFile(c.Files[cases.FileDetectorConfig])
	if err != nil {
		return analysis.Result{}, nil, err
	}
	if len(defs) == 0 {
		return analysis.Result{}, nil, domainerrors.New(domainerrors.CodeValidation, "detector configuration defines no detectors")
	}

	var (
		simulated, observed series.Series
		skipped             int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		simulated, skipped, err = s.simulated.Aggregate(gctx, c.Files[cases.FileOutputDir], defs)
		return err
	})
	g.Go(func() error {
		var err error
		observed, err = s.observed.Align(gctx, stationSet(defs), c.TimeRange.Start, c.TimeRange.End)
		return err
	})
	if err := g.Wait(); err != nil {
		return analysis.Result{}, nil, err
	}

	result := analysis.Evaluate(simulated, observed, s.thresholds)
	if err := analysis.WriteArtifacts(c.Files[cases.FileResultsDir], result); err != nil {
		return analysis.Result{}, nil, err
	}

	if s.metrics != nil {
		s.metrics.ComparisonRecords.Add(float64(result.Summary.Records))
		s.metrics.AnomaliesFound.Add(float64(result.Summary.AnomalyCount))
	}

	stats := map[string]any{
		"detectors":          len(defs),
		"detectors_skipped":  skipped,
		"comparison_records": result.Summary.Records,
		"anomalies":          result.Summary.AnomalyCount,
	}
	return result, stats, nil
}

// advance applies one legal transition and emits the audit event for it.
func (s *Service) advance(ctx context.Context, c cases.Case, to cases.Status, upd cases.TransitionUpdate) (cases.Case, error) {
	from := c.Status
	updated, err := s.store.ApplyTransition(ctx, c.ID, from, to, upd)
	if err != nil {
		return cases.Case{}, err
	}
	if s.audit != nil {
		s.audit.Emit(audit.Event{
			CaseID: c.ID,
			From:   string(from),
			To:     string(to),
			Stage:  upd.Stage,
			Reason: upd.Reason,
		})
	}
	s.logger.Info("case transitioned", "case_id", c.ID, "from", from, "to", to)
	return updated, nil
}

// fail moves the case to FAILED carrying the originating stage and reason.
// The write uses a non-cancellable context so a cancelled run still records
// its outcome.
func (s *Service) fail(ctx context.Context, c cases.Case, stage string, cause error) error {
	if s.metrics != nil {
		s.metrics.RunsFailed.WithLabelValues(stage).Inc()
	}
	s.logger.Error("pipeline stage failed", "case_id", c.ID, "stage", stage, "error", cause)

	_, err := s.advance(context.WithoutCancel(ctx), c, cases.StatusFailed, cases.TransitionUpdate{
		Stage:  stage,
		Reason: cause.Error(),
	})
	if err != nil {
		s.logger.Error("recording failure state", "case_id", c.ID, "error", err)
	}
	return cause
}

func (s *Service) observeStage(stage string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStage(stage, time.Since(start))
	}
}

func copyFiles(files map[string]string) map[string]string {
	out := make(map[string]string, len(files))
	for k, v := range files {
		out[k] = v
	}
	return out
}

// stationSet maps detector definitions to their distinct station ids.
func stationSet(defs []detector.Definition) []string {
	seen := make(map[string]struct{}, len(defs))
	out := make([]string, 0, len(defs))
	for _, def := range defs {
		station := detector.StationID(def.ID)
		if _, ok := seen[station]; ok {
			continue
		}
		seen[station] = struct{}{}
		out = append(out, station)
	}
	sort.Strings(out)
	return out
}
