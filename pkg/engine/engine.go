// SPDX-License-Identifier: Apache-2.0
// Package engine runs one launch attempt: resolve the descriptor, pick a
// runtime, extract natives, build the plan and spawn the game.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/craftlaunch/pkg/credentials"
	"github.com/provide-io/craftlaunch/pkg/descriptor"
	"github.com/provide-io/craftlaunch/pkg/jvm"
	"github.com/provide-io/craftlaunch/pkg/natives"
	"github.com/provide-io/craftlaunch/pkg/plan"
	"github.com/provide-io/craftlaunch/pkg/platform"
	"github.com/provide-io/craftlaunch/pkg/supervisor"
)

// Config wires the engine's collaborators.
type Config struct {
	InstanceRoot     string
	Platform         platform.Platform
	RuntimeRoots     []string
	AutoAcquire      bool
	NativesRetention time.Duration
	FirstGrace       time.Duration
	SecondGrace      time.Duration
	Env              supervisor.EnvConfig
}

// Request describes one launch attempt.
type Request struct {
	VersionID   string
	Credentials credentials.Provider
	Options     plan.Options
	// JavaPath bypasses runtime selection when set.
	JavaPath string
	Features map[string]bool
}

// Result collects what a launch attempt produced. On failure the fields
// filled in before the failing step are still set.
type Result struct {
	Descriptor *descriptor.Descriptor
	Runtime    jvm.Selection
	Session    *natives.Session
	Plan       *plan.LaunchPlan
	Outcome    *supervisor.Outcome
	Warnings   []string
}

type runtimeSelector interface {
	Select(ctx context.Context, req jvm.Requirement) (jvm.Selection, error)
}

type processLauncher interface {
	Launch(ctx context.Context, p *plan.LaunchPlan, instanceRoot string) (*supervisor.Outcome, error)
}

// Engine runs launch attempts against one instance. Attempts share no
// mutable state and may run concurrently.
type Engine struct {
	paths    *descriptor.Paths
	platform platform.Platform
	resolver *descriptor.Resolver
	registry *jvm.Registry
	selector runtimeSelector
	probe    jvm.ProbeFunc
	natives  *natives.Cache
	builder  *plan.Builder
	launcher processLauncher
	now      func() time.Time
	logger   hclog.Logger
}

// New wires an Engine from cfg.
func New(cfg Config, logger hclog.Logger) *Engine {
	logger = logger.Named("engine")
	p := cfg.Platform
	if p.OS == "" {
		p = platform.Current()
	}
	paths := descriptor.NewPaths(cfg.InstanceRoot)

	roots := append([]string{paths.Runtime()}, cfg.RuntimeRoots...)
	registry := jvm.NewRegistry(p, roots, logger)

	var acquirer jvm.Acquirer
	if cfg.AutoAcquire {
		acquirer = jvm.NewAdoptiumAcquirer(paths.Runtime(), p, logger)
	}

	sup := supervisor.New(logger)
	if cfg.FirstGrace > 0 {
		sup.FirstGrace = cfg.FirstGrace
	}
	if cfg.SecondGrace > 0 {
		sup.SecondGrace = cfg.SecondGrace
	}
	sup.Env = cfg.Env

	return &Engine{
		paths:    paths,
		platform: p,
		resolver: descriptor.NewResolver(paths, logger),
		registry: registry,
		selector: jvm.NewSelector(registry, acquirer, logger),
		probe:    registry.Probe,
		natives:  natives.NewCache(paths.Natives(), cfg.NativesRetention, logger),
		builder:  plan.NewBuilder(logger),
		launcher: sup,
		now:      time.Now,
		logger:   logger,
	}
}

// Paths returns the instance layout.
func (e *Engine) Paths() *descriptor.Paths {
	return e.paths
}

// Registry returns the runtime registry.
func (e *Engine) Registry() *jvm.Registry {
	return e.registry
}

// Natives returns the native cache.
func (e *Engine) Natives() *natives.Cache {
	return e.natives
}

// Resolve returns the merged descriptor for id.
func (e *Engine) Resolve(id string) (*descriptor.Descriptor, error) {
	return e.resolver.Resolve(id)
}

// Plan runs every step up to and including plan construction. The native
// session it creates is left for the reaper.
func (e *Engine) Plan(ctx context.Context, req Request) (*Result, error) {
	if req.VersionID == "" {
		return nil, fmt.Errorf("%w: version id is empty", ErrInvalidRequest)
	}
	if req.Credentials == nil {
		return nil, fmt.Errorf("%w: no credential provider", ErrInvalidRequest)
	}

	creds, err := req.Credentials.Credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	res := &Result{}
	if creds.Expired(e.now()) {
		e.logger.Warn("⚠️ Access token has expired, the game may reject it", "expires_at", creds.ExpiresAt)
		res.Warnings = append(res.Warnings, "access token expired at "+creds.ExpiresAt.Format(time.RFC3339))
	}

	e.logger.Info("🎮 Preparing launch", "version", req.VersionID, "player", creds.PlayerName, "platform", e.platform)

	d, err := e.resolver.Resolve(req.VersionID)
	if err != nil {
		return res, err
	}
	res.Descriptor = d

	sel, err := e.selectRuntime(ctx, d, req.JavaPath, res)
	if err != nil {
		return res, err
	}
	res.Runtime = sel

	env := descriptor.Environment{Platform: e.platform, Features: req.Features}
	session, err := e.natives.Materialize(d, e.paths, env)
	if err != nil {
		return res, err
	}
	res.Session = session
	for _, w := range session.Warnings {
		res.Warnings = append(res.Warnings, w.Error())
	}

	p, err := e.builder.Build(plan.Input{
		Descriptor:  d,
		RuntimePath: sel.Path,
		NativeDir:   session.Dir,
		Credentials: creds,
		Paths:       e.paths,
		Env:         env,
		Options:     req.Options,
	})
	if err != nil {
		return res, err
	}
	res.Plan = p
	res.Warnings = append(res.Warnings, p.Warnings...)
	return res, nil
}

// Launch runs Plan and spawns the game. On success the native session is
// bound to the child's pid so the reaper leaves it alone.
func (e *Engine) Launch(ctx context.Context, req Request) (*Result, error) {
	res, err := e.Plan(ctx, req)
	if err != nil {
		e.logger.Error("❌ Launch aborted before spawn", "class", Classify(err), "error", err)
		return res, err
	}

	out, err := e.launcher.Launch(ctx, res.Plan, e.paths.Root())
	if err != nil {
		e.logger.Error("❌ Launch failed", "class", Classify(err), "error", err)
		return res, err
	}
	res.Outcome = out

	if err := e.natives.MarkOwner(res.Session, out.PID); err != nil {
		e.logger.Warn("⚠️ Failed to record native session owner", "session", res.Session.ID, "error", err)
	}
	e.logger.Info("🎉 Launched", "version", res.Descriptor.ID, "pid", out.PID,
		"java", res.Runtime.Major, "stdout", filepath.Base(out.StdoutLog))
	return res, nil
}

func (e *Engine) selectRuntime(ctx context.Context, d *descriptor.Descriptor, javaPath string, res *Result) (jvm.Selection, error) {
	need := jvm.InferRequirement(d)
	e.logger.Debug("☕ Runtime requirement", "requirement", need.String())

	if javaPath == "" {
		return e.selector.Select(ctx, need)
	}

	major, err := e.probe(ctx, javaPath)
	if err != nil {
		return jvm.Selection{}, &jvm.UnavailableError{Requirement: need, AcquireErr: fmt.Errorf("configured java %s: %w", javaPath, err)}
	}
	if !need.IsZero() && !need.Satisfied(major) {
		e.logger.Warn("⚠️ Configured Java does not meet the version requirement, using it anyway",
			"path", javaPath, "major", major, "requirement", need.String())
		res.Warnings = append(res.Warnings, fmt.Sprintf("configured java %d does not satisfy %s", major, need))
	}
	e.logger.Info("☕ Using configured runtime", "path", javaPath, "major", major)
	return jvm.Selection{Major: major, Path: javaPath}, nil
}
