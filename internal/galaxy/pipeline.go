package galaxy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"galaxy-forge/internal/catalog"
	"galaxy-forge/internal/rng"
	"galaxy-forge/internal/shared/errors"
	"galaxy-forge/internal/warpgate"
)

type Stage string

const (
	StagePoints    Stage = "points"
	StageSectors   Stage = "sectors"
	StageStellar   Stage = "stellar"
	StageInhabited Stage = "inhabited"
	StageGates     Stage = "gates"
	StageHubs      Stage = "hubs"
	StageEconomy   Stage = "economy"
	StagePirates   Stage = "pirates"
)

// Stages is the fixed generation order. A stage's position is also the key
// of its random stream.
var Stages = []Stage{
	StagePoints, StageSectors, StageStellar, StageInhabited,
	StageGates, StageHubs, StageEconomy, StagePirates,
}

func ParseStage(name string) (Stage, error) {
	for _, s := range Stages {
		if string(s) == strings.ToLower(strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return "", errors.Validationf("unknown stage %q", name)
}

func (s Stage) stream() uint64 {
	for i, st := range Stages {
		if st == s {
			return uint64(i) + 1
		}
	}
	return 0
}

// Streams outside the stage range, offset by star count or tick.
const (
	addStarStream    = 1000
	movePirateStream = 1 << 32
)

const gateActive = warpgate.StatusActive

// insertBatch bounds how many rows one store call receives.
const insertBatch = 500

// StageReport describes one stage run. Skipped means the stage already had
// output and was left untouched. Recovered counts units the stage could not
// place and moved past, such as stars dropped by the distributor.
type StageReport struct {
	Stage     Stage `json:"stage"`
	Created   int   `json:"created"`
	Skipped   bool  `json:"skipped"`
	Recovered int   `json:"recovered"`
}

type Result struct {
	Galaxy *Galaxy       `json:"galaxy"`
	Stages []StageReport `json:"stages"`
}

var fingerprintNamespace = uuid.MustParse("6f1c3a52-8d2e-4b7a-9c41-2e5d8f0a7b13")

// Fingerprint identifies the universe a configuration produces. Equal inputs
// under the same catalog version give equal fingerprints.
func Fingerprint(cfg Config, catalogVersion int) uuid.UUID {
	data, err := json.Marshal(struct {
		Config         Config `json:"config"`
		CatalogVersion int    `json:"catalog_version"`
	}{cfg, catalogVersion})
	if err != nil {
		// Config holds only plain values
		panic(err)
	}
	return uuid.NewSHA1(fingerprintNamespace, data)
}

type Pipeline struct {
	store   Store
	catalog *catalog.Catalog
	tracer  trace.Tracer
	logger  *slog.Logger
}

func NewPipeline(store Store, cat *catalog.Catalog) *Pipeline {
	logger := slog.With("component", "galaxy_pipeline")
	logger.Debug("Initializing generation pipeline")
	return &Pipeline{
		store:   store,
		catalog: cat,
		tracer:  otel.Tracer("galaxy-forge/galaxy"),
		logger:  logger,
	}
}

type stageFunc func(ctx context.Context, st Store, g *Galaxy, src *rng.Rand) (StageReport, error)

func (p *Pipeline) stageRunner(stage Stage) stageFunc {
	switch stage {
	case StagePoints:
		return p.runPoints
	case StageSectors:
		return p.runSectors
	case StageStellar:
		return p.runStellar
	case StageInhabited:
		return p.runInhabited
	case StageGates:
		return p.runGates
	case StageHubs:
		return p.runHubs
	case StageEconomy:
		return p.runEconomy
	case StagePirates:
		return p.runPirates
	}
	return nil
}

func (p *Pipeline) validate(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if p.catalog == nil {
		return errors.Validation("generation catalog not loaded")
	}
	return nil
}

// Generate validates cfg, creates the galaxy and runs every stage in order.
// Nothing is written when validation fails. A stage failure rolls back that
// stage only; earlier stages stay committed and can be resumed with RunStage.
func (p *Pipeline) Generate(ctx context.Context, name string, cfg Config) (*Result, error) {
	logger := p.logger.With("operation", "generate", "seed", cfg.Seed, "engine", cfg.Engine,
		"distribution", cfg.DistributionMethod, "star_count", cfg.StarCount)

	if err := p.validate(cfg); err != nil {
		logger.Error("Generation config rejected", "error", err)
		return nil, err
	}

	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("Galaxy %d", cfg.Seed)
	}
	g := &Galaxy{
		Fingerprint:    Fingerprint(cfg, p.catalog.Version),
		Name:           name,
		Width:          cfg.Width,
		Height:         cfg.Height,
		Seed:           cfg.Seed,
		Distribution:   cfg.DistributionMethod,
		Engine:         cfg.Engine,
		CatalogVersion: p.catalog.Version,
		Config:         cfg,
	}
	if err := p.store.CreateGalaxy(ctx, g); err != nil {
		logger.Error("Failed to create galaxy", "error", err)
		return nil, errors.WrapInternal("failed to create galaxy", err)
	}
	logger = logger.With("galaxy_id", g.ID)
	logger.Info("Generating galaxy", "fingerprint", g.Fingerprint)

	res := &Result{Galaxy: g}
	for _, stage := range Stages {
		report, err := p.runStage(ctx, g, stage, false)
		if err != nil {
			return res, err
		}
		res.Stages = append(res.Stages, report)
	}

	if latest, err := p.store.GetGalaxy(ctx, g.ID); err == nil {
		res.Galaxy = latest
	}
	logger.Info("Galaxy generated", "stars", res.Galaxy.StarCount)
	return res, nil
}

// RunStage re-runs one stage of an existing galaxy. Without regenerate a
// stage that already has output is reported as skipped. With regenerate its
// output, and everything built on it, is cleared first.
func (p *Pipeline) RunStage(ctx context.Context, galaxyID int64, stage Stage, regenerate bool) (StageReport, error) {
	if p.stageRunner(stage) == nil {
		return StageReport{}, errors.Validationf("unknown stage %q", stage)
	}
	g, err := p.store.GetGalaxy(ctx, galaxyID)
	if err != nil {
		return StageReport{}, err
	}
	if err := p.validate(g.Config); err != nil {
		return StageReport{}, err
	}
	return p.runStage(ctx, g, stage, regenerate)
}

func (p *Pipeline) runStage(ctx context.Context, g *Galaxy, stage Stage, regenerate bool) (StageReport, error) {
	logger := p.logger.With("operation", "run_stage", "galaxy_id", g.ID, "stage", stage, "regenerate", regenerate)
	ctx, span := p.tracer.Start(ctx, "galaxy.stage."+string(stage), trace.WithAttributes(
		attribute.Int64("galaxy.id", g.ID),
		attribute.String("galaxy.stage", string(stage)),
		attribute.Bool("galaxy.regenerate", regenerate),
	))
	defer span.End()

	root, err := rng.New(g.Config.engine(), g.Seed)
	if err != nil {
		return StageReport{}, errors.WithStage(errors.WrapValidation("invalid rng engine", err), string(stage))
	}
	src := root.Derive(stage.stream())
	run := p.stageRunner(stage)

	report := StageReport{Stage: stage}
	err = p.store.InTx(ctx, func(st Store) error {
		has, err := hasOutput(ctx, st, g.ID, stage)
		if err != nil {
			return err
		}
		if has && !regenerate {
			report.Skipped = true
			return nil
		}
		if has {
			logger.Info("Clearing stage output")
			if err := clearStage(ctx, st, g.ID, stage); err != nil {
				return err
			}
		}
		r, err := run(ctx, st, g, src)
		if err != nil {
			return err
		}
		report.Created, report.Recovered = r.Created, r.Recovered
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorContext(ctx, "Stage failed", "error", err)
		return report, errors.WithStage(err, string(stage))
	}

	span.SetAttributes(
		attribute.Int("galaxy.stage.created", report.Created),
		attribute.Int("galaxy.stage.recovered", report.Recovered),
		attribute.Bool("galaxy.stage.skipped", report.Skipped),
	)
	if report.Skipped {
		logger.InfoContext(ctx, "Stage already has output, skipping")
	} else {
		logger.InfoContext(ctx, "Stage completed", "created", report.Created, "recovered", report.Recovered)
	}
	return report, nil
}

func hasOutput(ctx context.Context, st Store, galaxyID int64, stage Stage) (bool, error) {
	switch stage {
	case StagePoints:
		stars, err := st.ListPOIs(ctx, galaxyID, POIFilter{Types: []POIType{POIStar}})
		return len(stars) > 0, err
	case StageSectors:
		sectors, err := st.ListSectors(ctx, galaxyID)
		return len(sectors) > 0, err
	case StageStellar:
		stars, err := st.ListPOIs(ctx, galaxyID, POIFilter{Types: []POIType{POIStar}})
		for _, s := range stars {
			if s.Attributes.StellarClass != "" {
				return true, err
			}
		}
		return false, err
	case StageInhabited:
		stars, err := st.ListPOIs(ctx, galaxyID, POIFilter{Types: []POIType{POIStar}})
		for _, s := range stars {
			if s.Inhabited {
				return true, err
			}
		}
		return false, err
	case StageGates:
		gates, err := st.ListGates(ctx, galaxyID)
		return len(gates) > 0, err
	case StageHubs:
		hubs, err := st.ListHubs(ctx, galaxyID)
		return len(hubs) > 0, err
	case StageEconomy:
		n, err := st.CountInventory(ctx, galaxyID)
		return n > 0, err
	case StagePirates:
		bands, err := st.ListBands(ctx, galaxyID)
		if err != nil || len(bands) > 0 {
			return len(bands) > 0, err
		}
		lanes, err := st.ListLanePirates(ctx, galaxyID)
		return len(lanes) > 0, err
	}
	return false, nil
}

// clearStage removes a stage's output and whatever later stages derived
// from it, dependents first.
func clearStage(ctx context.Context, st Store, galaxyID int64, stage Stage) error {
	var steps []func(context.Context, int64) error
	switch stage {
	case StagePoints:
		steps = []func(context.Context, int64) error{
			st.DeleteLanePirates, st.DeleteBands, st.DeleteEconomy, st.DeleteHubs, st.DeleteGates,
			func(ctx context.Context, id int64) error { return st.DeletePOIs(ctx, id) },
		}
	case StageSectors:
		steps = []func(context.Context, int64) error{st.ClearSectors, st.DeleteBands, st.DeleteSectors}
	case StageStellar:
		steps = []func(context.Context, int64) error{
			func(ctx context.Context, id int64) error {
				return st.DeletePOIs(ctx, id, POIPlanet, POIMoon, POIAsteroidBelt)
			},
		}
	case StageInhabited:
		steps = []func(context.Context, int64) error{
			st.DeleteBands,
			func(ctx context.Context, id int64) error { return st.SetInhabited(ctx, id, nil) },
		}
	case StageGates:
		steps = []func(context.Context, int64) error{
			st.DeleteLanePirates, st.DeleteEconomy, st.DeleteHubs, st.DeleteGates,
			func(ctx context.Context, id int64) error { return st.SetGateCounts(ctx, id, nil) },
		}
	case StageHubs:
		steps = []func(context.Context, int64) error{st.DeleteEconomy, st.DeleteHubs}
	case StageEconomy:
		steps = []func(context.Context, int64) error{st.DeleteEconomy}
	case StagePirates:
		steps = []func(context.Context, int64) error{st.DeleteLanePirates, st.DeleteBands}
	}
	for _, step := range steps {
		if err := step(ctx, galaxyID); err != nil {
			return fmt.Errorf("failed to clear %s output: %w", stage, err)
		}
	}
	return nil
}

// Summary returns the galaxy with entity counts.
func (p *Pipeline) Summary(ctx context.Context, galaxyID int64) (*Summary, error) {
	g, err := p.store.GetGalaxy(ctx, galaxyID)
	if err != nil {
		return nil, err
	}
	counts, err := p.store.Stats(ctx, galaxyID)
	if err != nil {
		return nil, errors.WrapInternal("failed to count galaxy entities", err)
	}
	return &Summary{Galaxy: *g, Counts: counts}, nil
}

func inBatches[T any](items []T, size int, fn func([]T) error) error {
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		if err := fn(items[start:end]); err != nil {
			return err
		}
	}
	return nil
}
