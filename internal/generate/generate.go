// Package generate ties the grammar config, the compiler and the emitters
// together for the command line tools.
package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"ttgen/internal/automaton"
	"ttgen/internal/config"
	"ttgen/internal/emit"
	"ttgen/internal/grammar"
	"ttgen/internal/recovery"
	"ttgen/internal/storage"
)

var ErrStale = errors.New("generated tables are out of date")

// Build is one successful compilation of the configured grammar set.
type Build struct {
	Specs  []grammar.Spec
	Result *automaton.Result

	// Checksum fingerprints the grammar list alone.
	Checksum storage.Checksum

	// Targets holds the header checksum of each configured target, in
	// config order. It also covers the render options of that target.
	Targets []storage.Checksum
}

// TargetStatus describes one output file during a check.
type TargetStatus struct {
	Target  config.Target
	Want    storage.Checksum
	Got     storage.Checksum
	Missing bool
}

// Stale reports whether the target must be regenerated.
func (s TargetStatus) Stale() bool {
	return s.Missing || s.Got != s.Want
}

// Generator compiles the configured grammars and writes every target.
type Generator struct {
	cfg      *config.Config
	logger   *slog.Logger
	compiler *automaton.Compiler
}

// New creates a Generator for cfg.
func New(cfg *config.Config, logger *slog.Logger) *Generator {
	return &Generator{
		cfg:      cfg,
		logger:   logger,
		compiler: automaton.NewCompiler(logger),
	}
}

// Build loads and compiles the grammar set and checks that every target can
// render it, without writing anything.
func (g *Generator) Build() (*Build, error) {
	specs, err := g.cfg.LoadGrammars()
	if err != nil {
		return nil, fmt.Errorf("load grammars: %w", err)
	}
	res, err := g.compiler.Compile(specs)
	if err != nil {
		return nil, err
	}
	sum, err := emit.GrammarChecksum(specs)
	if err != nil {
		return nil, err
	}

	b := &Build{Specs: specs, Result: res, Checksum: sum}
	for _, t := range g.cfg.Targets {
		opts := g.renderOptions(t, "")
		if err := emit.Check(res, t.Format, opts); err != nil {
			return nil, fmt.Errorf("target %s: %w", t.Path, err)
		}
		fp, err := emit.Fingerprint(specs, t.Format, opts)
		if err != nil {
			return nil, err
		}
		b.Targets = append(b.Targets, fp)
	}
	return b, nil
}

// Generate compiles the grammars and replaces every target file. Targets are
// rendered concurrently from the same immutable Result; nothing is written
// unless all of them render.
func (g *Generator) Generate(ctx context.Context) (*Build, error) {
	start := time.Now()

	b, err := g.Build()
	if err != nil {
		return nil, err
	}
	g.cleanTargets()

	outputs := make([][]byte, len(g.cfg.Targets))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, t := range g.cfg.Targets {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := emit.Render(&buf, t.Format, b.Result, g.renderOptions(t, b.Targets[i])); err != nil {
				return fmt.Errorf("render %s: %w", t.Path, err)
			}
			outputs[i] = buf.Bytes()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for i, t := range g.cfg.Targets {
		if err := storage.WriteOutput(t.Path, outputs[i]); err != nil {
			return nil, fmt.Errorf("write %s: %w", t.Path, err)
		}
		g.logger.Info("wrote transition tables",
			"path", t.Path,
			"format", t.Format,
			"bytes", len(outputs[i]),
		)
	}

	g.logger.Info("generation complete",
		"targets", len(g.cfg.Targets),
		"checksum", b.Checksum.Short(12),
		"duration", time.Since(start),
	)
	return b, nil
}

// Check compares every target's header checksum against the current grammar
// set and render options. It returns ErrStale when any target is missing or
// out of date.
func (g *Generator) Check() ([]TargetStatus, error) {
	b, err := g.Build()
	if err != nil {
		return nil, err
	}

	statuses := make([]TargetStatus, 0, len(g.cfg.Targets))
	var stale bool
	for i, t := range g.cfg.Targets {
		st := TargetStatus{Target: t, Want: b.Targets[i]}
		st.Got, st.Missing, err = readTargetChecksum(t.Path)
		if err != nil {
			return nil, err
		}
		if st.Stale() {
			stale = true
			g.logger.Warn("stale transition tables", "path", t.Path, "missing", st.Missing)
		}
		statuses = append(statuses, st)
	}
	if stale {
		return statuses, ErrStale
	}
	return statuses, nil
}

// cleanTargets removes temp files abandoned by an earlier interrupted run.
// Failures only cost disk space, so they are logged and ignored.
func (g *Generator) cleanTargets() {
	paths := make([]string, len(g.cfg.Targets))
	for i, t := range g.cfg.Targets {
		paths[i] = t.Path
	}
	opts := recovery.DefaultOptions()
	opts.Logger = g.logger
	if _, err := recovery.CleanTargets(paths, opts); err != nil {
		g.logger.Warn("temp file cleanup failed", "error", err)
	}
}

func (g *Generator) renderOptions(t config.Target, sum storage.Checksum) emit.Options {
	return emit.Options{
		DefaultColumnKind: g.cfg.Grammar.DefaultColumnKind,
		Package:           t.Package,
		Checksum:          sum,
	}
}

func readTargetChecksum(path string) (storage.Checksum, bool, error) {
	if !storage.FileExists(path) {
		return "", true, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return "", false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sum, err := emit.ReadChecksum(f)
	if errors.Is(err, emit.ErrNoChecksum) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", path, err)
	}
	return sum, false, nil
}
