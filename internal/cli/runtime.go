package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gzhole/toolguard/internal/audit"
	"github.com/gzhole/toolguard/internal/config"
	"github.com/gzhole/toolguard/internal/guard"
	"github.com/gzhole/toolguard/internal/policy"
)

// runtime is what a command needs after flags are parsed: config, the
// audit store and an engine reading from it.
type runtime struct {
	cfg    *config.Config
	audit  audit.Logger
	engine *policy.Engine
	log    *slog.Logger
}

func workingDir(hint string) string {
	if hint != "" {
		return hint
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// loadConfig never fails: a broken config file is reported and the
// defaults are used.
func (o *rootOptions) loadConfig(cwd string, log *slog.Logger) *config.Config {
	cfg, err := config.Load(o.configPath, cwd)
	if err != nil {
		log.Warn("config load failed, using defaults", "err", err)
		cfg = config.Default(cwd)
	}
	if o.logPath != "" {
		cfg.Audit.Path = o.logPath
	}
	log.Debug("config loaded", "source", cfg.Source, "audit", cfg.Audit.Path, "backend", cfg.Audit.Backend)
	return cfg
}

func openAudit(cfg *config.Config) (audit.Logger, error) {
	store, err := audit.Open(audit.Options{
		Backend:       cfg.Audit.Backend,
		Path:          cfg.Audit.Path,
		LookbackPaths: cfg.Audit.LookbackPaths,
		MaxEntries:    cfg.Audit.LookbackEntries,
	})
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return store, nil
}

// newRuntime wires the engine for cwd. An audit store that cannot be
// opened is replaced by none; lookback then finds nothing.
func (o *rootOptions) newRuntime(cwd string, log *slog.Logger) *runtime {
	cfg := o.loadConfig(cwd, log)

	rt := &runtime{cfg: cfg, log: log}
	store, err := openAudit(cfg)
	if err != nil {
		log.Warn("audit log unavailable", "err", err)
	} else {
		rt.audit = store
	}

	guards, err := guard.Table(guard.OptionsFromConfig(cfg))
	if err != nil {
		log.Warn("ignoring invalid structure patterns", "err", err)
	}

	engineOpts := []policy.Option{policy.WithLogger(log)}
	if rt.audit != nil {
		engineOpts = append(engineOpts, policy.WithHistory(rt.audit))
	}
	rt.engine = policy.NewEngine(guards, engineOpts...)
	return rt
}

// failOpen is deferred by the hook commands. A panic that escapes would
// exit with status 2, which Claude Code reads as a block.
func failOpen(log *slog.Logger, errp *error) {
	if r := recover(); r != nil {
		log.Error("recovered panic, allowing", "panic", r)
		*errp = nil
	}
}

func (rt *runtime) close() {
	if rt.audit == nil {
		return
	}
	if err := rt.audit.Close(); err != nil {
		rt.log.Warn("closing audit log", "err", err)
	}
}
