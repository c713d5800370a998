package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dfid/devtracker-site/internal/assets"
	"github.com/dfid/devtracker-site/internal/config"
	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
	"github.com/dfid/devtracker-site/internal/helpers"
	"github.com/dfid/devtracker-site/internal/logfields"
	"github.com/dfid/devtracker-site/internal/metrics"
	"github.com/dfid/devtracker-site/internal/observability"
	"github.com/dfid/devtracker-site/internal/pages"
	"github.com/dfid/devtracker-site/internal/render"
	"github.com/dfid/devtracker-site/internal/sitemap"
	"github.com/dfid/devtracker-site/internal/store"
	"github.com/dfid/devtracker-site/internal/workspace"
)

// Stage names, in execution order.
const (
	StagePrepare     = "prepare"
	StageLoadData    = "load_data"
	StageMapPages    = "map_pages"
	StageCopyAssets  = "copy_assets"
	StageRenderPages = "render_pages"
	StageRewriteHTML = "rewrite_html"
	StagePromote     = "promote"
)

// Notifier is told about every successful build.
type Notifier interface {
	BuildCompleted(ctx context.Context, r *Report) error
}

// Request contains the inputs for one build.
type Request struct {
	Config *config.Config
	// Mode defaults to ModeBuild.
	Mode Mode
}

// Builder executes builds against one store.
type Builder struct {
	store    store.Store
	recorder metrics.Recorder
	rules    []pages.Rule
	notifier Notifier
}

// NewBuilder creates a Builder with the default mapping rules and no metrics.
func NewBuilder(st store.Store) *Builder {
	return &Builder{store: st, recorder: metrics.NoopRecorder{}, rules: pages.DefaultRules()}
}

// WithRecorder sets the metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	b.recorder = r
	return b
}

// WithRules replaces the mapping rules.
func (b *Builder) WithRules(rules ...pages.Rule) *Builder {
	b.rules = rules
	return b
}

// WithNotifier sets the notifier called after successful builds.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// Routes runs only the mapping stage.
func (b *Builder) Routes(ctx context.Context, cfg *config.Config) (*sitemap.Sitemap, error) {
	return pages.NewMapper(b.store, cfg.Source.Ignore...).WithRules(b.rules...).Map(ctx)
}

// Run executes the full pipeline. The returned report is non-nil whenever
// the request was valid, including on failure.
func (b *Builder) Run(ctx context.Context, req Request) (*Report, error) {
	if req.Config == nil {
		b.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
		return nil, foundation.ConfigError("config required").Build()
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeBuild
	}

	id := uuid.NewString()
	report := newReport(id, mode, req.Config.Output.Directory)
	ctx = observability.WithMode(observability.WithBuildID(ctx, id), string(mode))
	observability.InfoContext(ctx, "Starting build", logfields.Path(req.Config.Output.Directory))

	r := &run{builder: b, cfg: req.Config, mode: mode, report: report}
	err := r.execute(ctx)

	status, outcome := StatusSuccess, metrics.BuildOutcomeSuccess
	if err != nil {
		status, outcome = StatusFailed, metrics.BuildOutcomeFailed
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status, outcome = StatusCanceled, metrics.BuildOutcomeCanceled
		}
	}
	report.finish(status, err)
	b.recorder.ObserveBuildDuration(report.Duration)
	b.recorder.IncBuildOutcome(outcome)

	if err != nil {
		observability.ErrorContext(ctx, "Build failed", logfields.Error(err), logfields.Duration(report.Duration))
		return report, err
	}
	observability.InfoContext(ctx, "Build complete",
		slog.Int("regular_pages", report.RegularPages),
		slog.Int("proxy_pages", report.ProxyPages),
		slog.Int("assets", report.Assets),
		logfields.Duration(report.Duration))

	if b.notifier != nil {
		if nerr := b.notifier.BuildCompleted(ctx, report); nerr != nil {
			observability.WarnContext(ctx, "Build notification failed", logfields.Error(nerr))
		}
	}
	return report, nil
}

// run holds the state passed between the stages of one build.
type run struct {
	builder *Builder
	cfg     *config.Config
	mode    Mode
	report  *Report

	ws       *workspace.Manager
	data     map[string]any
	sitemap  *sitemap.Sitemap
	manifest *assets.Manifest
}

type stage struct {
	name string
	fn   func(ctx context.Context) error
}

func (r *run) execute(ctx context.Context) error {
	defer func() {
		if r.ws == nil {
			return
		}
		if err := r.ws.Cleanup(); err != nil {
			observability.WarnContext(ctx, "Failed to cleanup workspace", logfields.Error(err))
		}
	}()

	stages := []stage{
		{StagePrepare, r.prepare},
		{StageLoadData, r.loadData},
		{StageMapPages, r.mapPages},
		{StageCopyAssets, r.copyAssets},
		{StageRenderPages, r.renderPages},
		{StageRewriteHTML, r.rewriteHTML},
		{StagePromote, r.promote},
	}
	for _, s := range stages {
		if err := r.runStage(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) runStage(ctx context.Context, s stage) error {
	rec := r.builder.recorder
	if err := ctx.Err(); err != nil {
		rec.IncStageResult(s.name, metrics.ResultCanceled)
		return err
	}

	ctx = observability.WithStage(ctx, s.name)
	start := time.Now()
	err := s.fn(ctx)
	d := time.Since(start)
	r.report.StageDurations[s.name] = d
	rec.ObserveStageDuration(s.name, d)

	switch {
	case err == nil:
		rec.IncStageResult(s.name, metrics.ResultSuccess)
		observability.DebugContext(ctx, "Stage complete", logfields.Duration(d))
		return nil
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		rec.IncStageResult(s.name, metrics.ResultCanceled)
		return err
	default:
		rec.IncStageResult(s.name, metrics.ResultFatal)
		if _, ok := foundation.AsClassified(err); ok {
			return err
		}
		return foundation.WrapError(err, foundation.CategoryBuild, fmt.Sprintf("stage %s failed", s.name)).
			WithContext("stage", s.name).
			Build()
	}
}

func (r *run) buildMode() bool { return r.mode == ModeBuild }

func (r *run) prepare(ctx context.Context) error {
	r.ws = workspace.NewManager(r.cfg.Output.Directory)
	if err := r.ws.Create(); err != nil {
		r.ws = nil
		return foundation.FileSystemError("failed to create staging workspace").WithCause(err).Build()
	}
	if !r.cfg.Output.Clean {
		if err := r.ws.Seed(); err != nil {
			return foundation.FileSystemError("failed to seed staging workspace").WithCause(err).Build()
		}
	}
	if r.cfg.Build.Smusher {
		observability.WarnContext(ctx, "Image compression (smusher) is not supported; ignoring")
	}
	return nil
}

func (r *run) loadData(ctx context.Context) error {
	data, err := LoadData(filepath.Join(r.cfg.Source.Directory, DataDir))
	if err != nil {
		return err
	}
	r.data = data
	observability.DebugContext(ctx, "Loaded data files", logfields.Count(len(data)))
	return nil
}

func (r *run) mapPages(ctx context.Context) error {
	sm, err := r.builder.Routes(ctx, r.cfg)
	if err != nil {
		return err
	}
	r.sitemap = sm
	observability.InfoContext(ctx, "Mapped proxy pages", logfields.Count(sm.Len()))
	return nil
}

func (r *run) copyAssets(ctx context.Context) error {
	res, err := assets.Copy(assets.Options{
		SourceDir: r.cfg.Source.Directory,
		Dirs:      r.cfg.Assets.Dirs(),
		MinifyCSS: r.buildMode() && r.cfg.Build.MinifyCSS,
		MinifyJS:  r.buildMode() && r.cfg.Build.MinifyJavascript,
		CacheBust: r.buildMode() && r.cfg.Build.CacheBuster,
	}, r.ws.GetPath())
	if err != nil {
		return err
	}
	r.manifest = res.Manifest
	r.report.Assets = res.Written
	r.report.MinifiedAssets = res.Minified
	r.builder.recorder.AddAssetsWritten(res.Written)
	observability.InfoContext(ctx, "Copied assets", logfields.Count(res.Written), slog.Int("minified", res.Minified))
	return nil
}

func (r *run) renderPages(ctx context.Context) error {
	cfg := r.cfg
	renderer, err := render.New(render.Options{
		SourceDir: cfg.Source.Directory,
		Layout:    cfg.Source.Layout,
		Funcs: helpers.FuncMap(helpers.Options{
			APIRootURL: cfg.API.RootURL,
			AccessURL:  cfg.API.AccessURL(),
			CSSDir:     cfg.Assets.CSSDir,
			JSDir:      cfg.Assets.JSDir,
			ImagesDir:  cfg.Assets.ImagesDir,
			AssetURL:   r.manifest.Resolve,
		}),
		Site: render.Site{
			Title:     cfg.Site.Title,
			BaseURL:   cfg.Site.BaseURL,
			APIURL:    cfg.API.RootURL,
			AccessURL: cfg.API.AccessURL(),
		},
		Data: r.data,
	})
	if err != nil {
		return err
	}

	regular, err := render.Discover(render.DiscoverOptions{
		SourceDir: cfg.Source.Directory,
		SkipDirs:  r.skipDirs(),
		Ignored: func(p string) bool {
			return r.sitemap.IsIgnored(p) || p == "/"+cfg.Source.Layout
		},
	})
	if err != nil {
		return err
	}

	out := r.ws.GetPath()
	for _, p := range regular {
		if err := r.renderOne(ctx, renderer, out, p, p, nil); err != nil {
			return err
		}
	}
	r.report.RegularPages = len(regular)
	r.builder.recorder.AddPagesRendered(metrics.PageRegular, len(regular))

	proxies := r.sitemap.Resources()
	for _, px := range proxies {
		if err := r.renderOne(ctx, renderer, out, px.Path, px.Template, px.Locals); err != nil {
			return err
		}
	}
	r.report.ProxyPages = len(proxies)
	r.builder.recorder.AddPagesRendered(metrics.PageProxy, len(proxies))

	observability.InfoContext(ctx, "Rendered pages",
		slog.Int("regular_pages", len(regular)),
		slog.Int("proxy_pages", len(proxies)))
	return nil
}

func (r *run) renderOne(ctx context.Context, renderer *render.Renderer, out, pagePath, tpl string, locals map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	html, err := renderer.Render(pagePath, tpl, locals)
	if err != nil {
		return err
	}
	if _, err := render.WriteFile(out, pagePath, html); err != nil {
		return foundation.FileSystemError(fmt.Sprintf("write page %s", pagePath)).
			WithCause(err).
			WithContext("path", pagePath).
			Build()
	}
	observability.DebugContext(ctx, "Rendered page", logfields.Path(pagePath), logfields.Template(tpl))
	return nil
}

func (r *run) skipDirs() []string {
	dirs := append([]string{DataDir}, r.cfg.Assets.Dirs()...)
	if d := path.Dir(r.cfg.Source.Layout); d != "." && d != "/" {
		dirs = append(dirs, d)
	}
	return dirs
}

func (r *run) rewriteHTML(ctx context.Context) error {
	if r.manifest.Len() == 0 {
		return nil
	}
	n, err := assets.RewriteDir(r.ws.GetPath(), r.manifest)
	if err != nil {
		return err
	}
	r.report.RewrittenPages = n
	observability.DebugContext(ctx, "Rewrote asset references", logfields.Count(n))
	return nil
}

func (r *run) promote(ctx context.Context) error {
	persisted := *r.report
	persisted.finish(StatusSuccess, nil)
	if err := persisted.Persist(r.ws.GetPath()); err != nil {
		return foundation.FileSystemError("failed to write build report").WithCause(err).Build()
	}
	if err := r.ws.Promote(); err != nil {
		return foundation.FileSystemError("failed to promote build output").
			WithCause(err).
			WithContext("path", r.cfg.Output.Directory).
			Build()
	}
	observability.DebugContext(ctx, "Output promoted", logfields.Path(r.cfg.Output.Directory))
	return nil
}
