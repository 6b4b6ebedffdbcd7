// pkg/source/builder.go
package source

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mapnik-tools/mapnikdeps/pkg/deps"
	"github.com/mapnik-tools/mapnikdeps/pkg/features"
)

// Outcome is the terminal result of one source build. The orchestrator
// either proceeds on success or halts the whole run on failure; there is
// no partial-recovery state.
type Outcome struct {
	Dependency    string
	Success       bool
	LogPath       string // combined configure/compile/install output
	FailedStep    string // fetch, configure, compile, install, ldconfig
	FailedCommand string // command line of the failing step
}

// Options configures a Builder.
type Options struct {
	Prefix  string      // install prefix, e.g. /usr/local
	WorkDir string      // scratch space for sources, build trees and logs
	Jobs    int         // parallel compile jobs (0 = NumCPU)
	Logger  *log.Logger // debug logging, nil discards
}

// Builder executes from-source builds: fetch a pinned version, configure
// with the supplied feature flags, compile, install, refresh the dynamic
// library cache. Builds are strictly sequential across dependencies;
// parallelism exists only inside a single compile step.
type Builder struct {
	prefix  string
	workDir string
	jobs    int
	logger  *log.Logger

	// run executes one build command with output tee'd to the build log.
	// Overridable in tests.
	run func(ctx context.Context, dir string, logFile io.Writer, name string, args ...string) error

	// fetch acquires the dependency's source tree. Overridable in tests.
	fetch func(ctx context.Context, dep deps.Dependency, logFile io.Writer) (string, error)
}

// NewBuilder creates a source builder.
func NewBuilder(opts Options) *Builder {
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}

	b := &Builder{
		prefix:  opts.Prefix,
		workDir: opts.WorkDir,
		jobs:    opts.Jobs,
		logger:  opts.Logger,
	}
	b.run = b.runCommand
	b.fetch = b.fetchSource
	return b
}

// Build runs the full pipeline for one dependency. Any step failure aborts
// the build, recording the failing step and command; nothing is retried
// and no half-installed state is reported as success.
func (b *Builder) Build(ctx context.Context, dep deps.Dependency, flags features.FlagSet) Outcome {
	outcome := Outcome{Dependency: dep.Name}

	logPath := filepath.Join(b.workDir, "logs", dep.Name+".log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		outcome.FailedStep = "fetch"
		outcome.FailedCommand = "mkdir " + filepath.Dir(logPath)
		return outcome
	}
	logFile, err := os.Create(logPath)
	if err != nil {
		outcome.FailedStep = "fetch"
		outcome.FailedCommand = "create " + logPath
		return outcome
	}
	defer logFile.Close()
	outcome.LogPath = logPath

	b.logger.Printf("building %s %s (log: %s)", dep.Name, dep.PinnedVersion, logPath)

	srcDir, err := b.fetch(ctx, dep, logFile)
	if err != nil {
		fmt.Fprintf(logFile, "\nfetch failed: %v\n", err)
		outcome.FailedStep = "fetch"
		outcome.FailedCommand = fmt.Sprintf("fetch %s", sourceLocation(dep.Source))
		return outcome
	}

	for _, step := range b.steps(dep, srcDir, flags) {
		if step.skip {
			continue
		}
		b.logger.Printf("%s: %s: %s %s", dep.Name, step.name, step.command, strings.Join(step.args, " "))
		fmt.Fprintf(logFile, "\n==> %s: %s %s\n", step.name, step.command, strings.Join(step.args, " "))

		if err := b.run(ctx, step.dir, logFile, step.command, step.args...); err != nil {
			outcome.FailedStep = step.name
			outcome.FailedCommand = step.command + " " + strings.Join(step.args, " ")
			return outcome
		}
	}

	outcome.Success = true
	return outcome
}

type buildStep struct {
	name    string
	dir     string
	command string
	args    []string
	skip    bool
}

// steps assembles the configure/compile/install/ldconfig sequence for the
// dependency's build system. Position-independent code and shared-library
// output are always requested: the final artifact must be dynamically
// loadable by a separate runtime process.
func (b *Builder) steps(dep deps.Dependency, srcDir string, flags features.FlagSet) []buildStep {
	jobs := fmt.Sprintf("%d", b.jobs)

	switch dep.Source.BuildSystem {
	case deps.BuildBoost:
		configureArgs := append([]string{"--prefix=" + b.prefix}, dep.Source.ConfigureArgs...)
		return []buildStep{
			{name: "configure", dir: srcDir, command: "./bootstrap.sh", args: configureArgs},
			{name: "compile", dir: srcDir, command: "./b2",
				args: []string{"-j" + jobs, "cxxflags=-fPIC", "cflags=-fPIC", "link=shared,static"}},
			{name: "install", dir: srcDir, command: "./b2", args: []string{"install"}},
			b.ldconfigStep(),
		}
	default: // cmake
		buildDir := filepath.Join(b.workDir, "build", dep.Name)
		configureArgs := []string{
			"-S", srcDir,
			"-B", buildDir,
			"-DCMAKE_BUILD_TYPE=Release",
			"-DCMAKE_INSTALL_PREFIX=" + b.prefix,
			"-DCMAKE_PREFIX_PATH=" + b.prefix,
			"-DCMAKE_POSITION_INDEPENDENT_CODE=ON",
			"-DBUILD_SHARED_LIBS=ON",
		}
		configureArgs = append(configureArgs, dep.Source.ConfigureArgs...)
		configureArgs = append(configureArgs, features.CMakeArgs(dep.Name, flags)...)

		return []buildStep{
			{name: "configure", dir: srcDir, command: "cmake", args: configureArgs},
			{name: "compile", dir: buildDir, command: "cmake",
				args: []string{"--build", buildDir, "--parallel", jobs}},
			{name: "install", dir: buildDir, command: "cmake", args: []string{"--install", buildDir}},
			b.ldconfigStep(),
		}
	}
}

// ldconfigStep refreshes the dynamic-library cache so subsequent probes and
// subsequent dependency builds can find what was just installed. The
// loader's cache is process-wide mutable state; it is touched only here,
// strictly between one dependency and the next.
func (b *Builder) ldconfigStep() buildStep {
	return buildStep{
		name:    "ldconfig",
		dir:     b.workDir,
		command: "ldconfig",
		skip:    runtime.GOOS != "linux",
	}
}

// runCommand executes one build command with stdout and stderr combined
// into the build log.
func (b *Builder) runCommand(ctx context.Context, dir string, logFile io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Env = b.commandEnv()

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s: %w", name, err)
	}
	return nil
}

// commandEnv extends the inherited environment so configure steps locate
// dependencies installed into the prefix by earlier builds. Variables the
// user set keep precedence; our entries are appended after them.
func (b *Builder) commandEnv() []string {
	env := os.Environ()

	pcPaths := []string{
		filepath.Join(b.prefix, "lib", "pkgconfig"),
		filepath.Join(b.prefix, "lib64", "pkgconfig"),
		filepath.Join(b.prefix, "share", "pkgconfig"),
	}
	env = appendPathVar(env, "PKG_CONFIG_PATH", pcPaths)
	env = appendPathVar(env, "LD_LIBRARY_PATH", []string{
		filepath.Join(b.prefix, "lib"),
		filepath.Join(b.prefix, "lib64"),
	})
	return env
}

// appendPathVar appends entries to a colon-separated path variable,
// keeping any existing value in front.
func appendPathVar(env []string, key string, entries []string) []string {
	joined := strings.Join(entries, string(os.PathListSeparator))
	prefix := key + "="

	for i, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			existing := strings.TrimPrefix(kv, prefix)
			if existing != "" {
				joined = existing + string(os.PathListSeparator) + joined
			}
			env[i] = prefix + joined
			return env
		}
	}
	return append(env, prefix+joined)
}

func sourceLocation(src deps.SourceSpec) string {
	if src.GitURL != "" {
		return src.GitURL + "@" + src.GitTag
	}
	return src.ArchiveURL
}
