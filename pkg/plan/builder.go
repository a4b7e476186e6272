// SPDX-License-Identifier: Apache-2.0
package plan

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/craftlaunch/pkg/argv"
	"github.com/provide-io/craftlaunch/pkg/credentials"
	"github.com/provide-io/craftlaunch/pkg/descriptor"
)

// Input is everything a plan is built from.
type Input struct {
	Descriptor  *descriptor.Descriptor
	RuntimePath string
	NativeDir   string
	Credentials credentials.Credentials
	Paths       *descriptor.Paths
	Env         descriptor.Environment
	Options     Options
}

// state collects per-build side results.
type state struct {
	modulePath []string
	warnings   []string
}

func (s *state) warn(format string, args ...any) {
	s.warnings = append(s.warnings, fmt.Sprintf(format, args...))
}

// Builder assembles launch plans.
type Builder struct {
	logger hclog.Logger
}

// NewBuilder returns a Builder.
func NewBuilder(logger hclog.Logger) *Builder {
	return &Builder{logger: logger.Named("plan")}
}

// Build turns a resolved descriptor into a validated LaunchPlan. Any
// invariant violation rejects the plan with a *BuildError.
func (b *Builder) Build(in Input) (*LaunchPlan, error) {
	if in.RuntimePath == "" {
		return nil, buildError(InvariantRuntime, "no runtime selected")
	}
	if strings.TrimSpace(in.Descriptor.MainClass) == "" {
		return nil, buildError(InvariantEntryClass, "descriptor %s has no mainClass", in.Descriptor.ID)
	}

	env := in.Env
	env.Features = make(map[string]bool, len(in.Env.Features)+1)
	for k, v := range in.Env.Features {
		env.Features[k] = v
	}
	if in.Options.Width > 0 && in.Options.Height > 0 {
		env.Features[descriptor.FeatureCustomResolution] = true
	}
	in.Env = env

	st := &state{}

	jvm := b.jvmArgs(&in, env, st)

	jvm, err := b.rebuildModulePath(&in, jvm, st)
	if err != nil {
		b.logger.Error("❌ Module path rejected", "error", err)
		return nil, err
	}

	cp, err := b.classpath(&in, env, st)
	if err != nil {
		b.logger.Error("❌ Classpath rejected", "error", err)
		return nil, err
	}
	jvm = placeClasspath(jvm, strings.Join(cp, env.Platform.PathListSeparator()))

	p := &LaunchPlan{
		Executable: in.RuntimePath,
		JVMArgs:    jvm,
		MainClass:  in.Descriptor.MainClass,
		GameArgs:   b.gameArgs(&in, env, st),
		Classpath:  cp,
		ModulePath: st.modulePath,
		Warnings:   st.warnings,
	}
	if tok := in.Credentials.AccessToken; tok != credentials.OfflineAccessToken {
		p.secrets = []string{tok}
	}

	if err := Validate(p.Args(), p.MainClassIndex()); err != nil {
		b.logger.Error("❌ Launch plan failed validation, refusing to launch",
			"error", err, "args", argv.Join(p.Redacted()))
		return nil, err
	}

	for _, w := range p.Warnings {
		b.logger.Debug("⚠️ Plan warning", "detail", w)
	}
	b.logger.Info("📝 Built launch plan",
		"main_class", p.MainClass,
		"classpath", len(p.Classpath),
		"module_path", len(p.ModulePath),
		"jvm_args", len(p.JVMArgs),
		"game_args", len(p.GameArgs))
	b.logger.Debug("🚀 Command", "argv", argv.Join(p.Redacted()))
	return p, nil
}
