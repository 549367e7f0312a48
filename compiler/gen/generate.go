package gen

import (
	"context"
	"log/slog"
	"time"

	"github.com/syssam/crudgen/compiler/artifact"
	"github.com/syssam/crudgen/compiler/naming"
	"github.com/syssam/crudgen/schema"
)

// Stage is a step of a generation run.
type Stage string

// Generation stages, in execution order. Failed is entered from any stage.
const (
	StageValidate             Stage = "validate"
	StageLayoutDerive         Stage = "layout_derive"
	StageDirectoryMaterialize Stage = "directory_materialize"
	StagePerEntityGeneration  Stage = "per_entity_generation"
	StageManifestEmit         Stage = "manifest_emit"
	StageDone                 Stage = "done"
	StageFailed               Stage = "failed"
)

// Result describes a generation run.
type Result struct {
	// Path is the project directory.
	Path string
	// Module is the module path of the generated project.
	Module string
	// Files lists the written files relative to Path, in write order.
	Files []string
	// Stage is StageDone or StageFailed.
	Stage Stage
	// FailedAt is the stage that failed, if any.
	FailedAt Stage
	Metrics  WriterMetrics
}

// Generator turns project specs into source trees. A Generator holds no
// per-run state and may run concurrently on disjoint project paths.
type Generator struct {
	cfg *Config
}

// NewGenerator returns a generator using cfg. A nil cfg selects the defaults.
func NewGenerator(cfg *Config) *Generator {
	if cfg == nil {
		cfg = defaultConfig()
	}
	return &Generator{cfg: cfg}
}

// Config returns the generator configuration.
func (g *Generator) Config() *Config { return g.cfg }

// Generate builds the configuration from opts and runs a generator on spec.
func Generate(ctx context.Context, spec *schema.ProjectSpec, opts ...Option) (*Result, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return NewGenerator(cfg).Generate(ctx, spec)
}

// Plan validates spec and returns its layout without writing anything.
func (g *Generator) Plan(spec *schema.ProjectSpec) (*Layout, error) {
	p, err := validate(g.cfg, spec)
	if err != nil {
		return nil, err
	}
	return deriveLayout(p), nil
}

// Generate validates spec and writes the project below spec.Path. The
// returned Result is never nil; on failure its Stage is StageFailed and files
// written before the failure are left in place.
func (g *Generator) Generate(ctx context.Context, spec *schema.ProjectSpec) (*Result, error) {
	r := &run{cfg: g.cfg, log: g.cfg.Logger, stage: StageValidate}
	if spec != nil {
		r.res.Path = spec.Path
	}
	start := time.Now()
	err := r.exec(ctx, spec)
	if r.fw != nil {
		r.res.Metrics = r.fw.Metrics()
	}
	if err != nil {
		r.res.Stage, r.res.FailedAt = StageFailed, r.stage
		r.log.WarnContext(ctx, "generation failed",
			slog.String("path", r.res.Path),
			slog.String("stage", string(r.stage)),
			slog.String("category", Category(err)),
			slog.Any("error", err),
		)
		return &r.res, err
	}
	r.res.Stage = StageDone
	r.log.InfoContext(ctx, "project generated",
		slog.String("path", r.res.Path),
		slog.String("module", r.res.Module),
		slog.Int("files", len(r.res.Files)),
		slog.Int64("bytes", r.res.Metrics.TotalBytes),
		slog.Duration("elapsed", time.Since(start)),
	)
	return &r.res, nil
}

// run is the state of one generation.
type run struct {
	cfg   *Config
	log   *slog.Logger
	stage Stage
	res   Result
	b     *builder
	fw    *fileWriter
}

func (r *run) enter(ctx context.Context, s Stage) {
	r.stage = s
	r.log.DebugContext(ctx, "stage", slog.String("stage", string(s)), slog.String("path", r.res.Path))
}

func (r *run) exec(ctx context.Context, spec *schema.ProjectSpec) error {
	r.enter(ctx, StageValidate)
	p, err := validate(r.cfg, spec)
	if err != nil {
		return err
	}
	r.res.Module = p.module
	r.b = newBuilder(r.cfg, p.spec, p.module, p.storage, p.models)

	r.enter(ctx, StageLayoutDerive)
	layout := deriveLayout(p)

	r.enter(ctx, StageDirectoryMaterialize)
	out := r.cfg.Output()
	w, err := out.Writer(p.spec.Path)
	if err != nil {
		return NewWriteError("project", p.spec.Path, err)
	}
	r.fw = newFileWriter(w, p.spec.Path, out.Format)
	for _, dir := range layout.Dirs {
		if err := r.fw.mkdir(dir); err != nil {
			return err
		}
	}

	r.enter(ctx, StagePerEntityGeneration)
	for _, m := range p.models {
		if err := r.entity(ctx, m); err != nil {
			return err
		}
	}

	r.enter(ctx, StageManifestEmit)
	manifest, err := r.b.BuildManifest()
	if err != nil {
		return NewGenerationError("manifest", FileManifest, "", err)
	}
	src, err := manifest.Format()
	if err != nil {
		return NewGenerationError("manifest", FileManifest, "", err)
	}
	if err := r.fw.write("manifest", FileManifest, src); err != nil {
		return err
	}
	r.res.Files = append(r.res.Files, FileManifest)
	app, err := r.b.BuildBootstrap()
	if err != nil {
		return NewGenerationError("bootstrap", FileBootstrap, "", err)
	}
	return r.file(ctx, nil, FileBootstrap, p.module, "main", app)
}

// entity writes the five files of m in generation order.
func (r *run) entity(ctx context.Context, m *Model) error {
	names := r.b.names
	for _, f := range naming.Files {
		var (
			arts  []artifact.Artifact
			phase string
		)
		switch f {
		case naming.DomainFile:
			phase = "domain"
			for _, dt := range DomainTypes {
				c, err := r.b.BuildDomain(m, dt)
				if err != nil {
					return NewGenerationError(phase, names.FilePath(f, m.Name), dt.String(), err)
				}
				arts = append(arts, c)
			}
		case naming.RepositoryFile:
			phase = "repository"
			i, err := r.b.BuildRepository(m)
			if err != nil {
				return NewGenerationError(phase, names.FilePath(f, m.Name), "", err)
			}
			arts = append(arts, i)
		case naming.MapperFile:
			phase = "mapper"
			i, err := r.b.BuildMapper(m)
			if err != nil {
				return NewGenerationError(phase, names.FilePath(f, m.Name), "", err)
			}
			arts = append(arts, i)
		case naming.ServiceFile:
			phase = "service"
			c, err := r.b.BuildService(m)
			if err != nil {
				return NewGenerationError(phase, names.FilePath(f, m.Name), "", err)
			}
			arts = append(arts, c)
		case naming.ControllerFile:
			phase = "controller"
			c, err := r.b.BuildController(m)
			if err != nil {
				return NewGenerationError(phase, names.FilePath(f, m.Name), "", err)
			}
			arts = append(arts, c)
		}
		pkg := string(f.Layer())
		if err := r.file(ctx, m, names.FilePath(f, m.Name), names.PackagePath(f.Layer(), m.Name), pkg, arts...); err != nil {
			return err
		}
	}
	return nil
}

// file emits the tags of arts, renders them into one Go file and writes it.
// m is nil for project-level files.
func (r *run) file(ctx context.Context, m *Model, name, path, pkg string, arts ...artifact.Artifact) error {
	f := r.b.newFile(path, pkg)
	for _, a := range arts {
		extra, err := r.b.Emit(m, a)
		if err != nil {
			return NewGenerationError("emit", name, "", err)
		}
		if err := f.Add(append([]artifact.Artifact{a}, extra...)...); err != nil {
			return NewGenerationError("emit", name, "", err)
		}
	}
	src, err := f.Render()
	if err != nil {
		return NewGenerationError("render", name, "", err)
	}
	if err := r.fw.writeGo(arts[0].Name(), name, src); err != nil {
		return err
	}
	r.res.Files = append(r.res.Files, name)
	r.log.DebugContext(ctx, "file written", slog.String("file", name), slog.Int("bytes", len(src)))
	return nil
}
