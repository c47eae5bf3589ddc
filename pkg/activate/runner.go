package activate

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// ExecFunc runs the final script invocation.
type ExecFunc func(ctx context.Context, argv []string, dir string, env []string) error

// ModuleEnvFunc resolves one `module load` into the environment variables
// it would export.
type ModuleEnvFunc func(ctx context.Context, name string) (map[string]string, error)

// Options configures a Run; zero value uses the real exec and modulecmd.
type Options struct {
	DryRun    bool
	Exec      ExecFunc
	ModuleEnv ModuleEnvFunc
}

// Run performs the full activation sequence and then executes the spec's
// script exactly once, with no arguments, synchronously. The error from
// the script itself is returned as-is so the process exit mirrors it.
func Run(ctx context.Context, spec *Spec, opts Options) error {
	execFn := opts.Exec
	if execFn == nil {
		execFn = execScript
	}
	moduleFn := opts.ModuleEnv
	if moduleFn == nil {
		moduleFn = moduleEnv
	}

	moduleVars := map[string]string{}
	for _, m := range spec.Modules {
		vars, err := moduleFn(ctx, m)
		if err != nil {
			return fmt.Errorf("failed to load module '%s': %w", m, err)
		}
		for k, v := range vars {
			moduleVars[k] = v
		}
		log.Debug().Str("module", m).Int("vars", len(vars)).Msg("module loaded")
	}

	env, err := ComposeEnviron(os.Environ(), spec, moduleVars)
	if err != nil {
		return err
	}

	workdir := expandPath(spec.Workdir)
	if workdir != "" {
		fi, err := os.Stat(workdir)
		if err != nil {
			return fmt.Errorf("workdir %s: %w", workdir, err)
		}
		if !fi.IsDir() {
			return fmt.Errorf("workdir %s is not a directory", workdir)
		}
	}

	script := expandPath(spec.Script)
	if !filepath.IsAbs(script) && workdir != "" {
		script = filepath.Join(workdir, script)
	}
	if _, err := os.Stat(script); err != nil {
		return fmt.Errorf("script %s: %w", script, err)
	}

	argv := []string{spec.Interpreter, script}
	if opts.DryRun {
		log.Info().Strs("argv", argv).Str("workdir", workdir).Msg("activate: dry-run, not executing")
		return nil
	}
	log.Info().Strs("argv", argv).Str("workdir", workdir).Str("conda_env", spec.CondaEnv).Msg("activate: running script")
	return execFn(ctx, argv, workdir, env)
}

// ComposeEnviron overlays module exports, spec env entries, and the conda
// environment onto a base environment. The conda env directory must exist;
// a missing environment is a setup failure, not something the script gets
// to discover.
func ComposeEnviron(base []string, spec *Spec, moduleVars map[string]string) ([]string, error) {
	vars := map[string]string{}
	order := []string{}
	set := func(k, v string) {
		if _, ok := vars[k]; !ok {
			order = append(order, k)
		}
		vars[k] = v
	}
	for _, kv := range base {
		if i := strings.IndexByte(kv, '='); i > 0 {
			set(kv[:i], kv[i+1:])
		}
	}
	for k, v := range moduleVars {
		set(k, v)
	}
	for k, v := range spec.Env {
		set(k, v)
	}

	if spec.CondaEnvsPath != "" {
		set("CONDA_ENVS_PATH", expandPath(spec.CondaEnvsPath))
	}
	if spec.CondaEnv != "" {
		envsPath := vars["CONDA_ENVS_PATH"]
		if envsPath == "" {
			return nil, fmt.Errorf("conda_env '%s' requires conda_envs_path (or CONDA_ENVS_PATH)", spec.CondaEnv)
		}
		envDir := filepath.Join(envsPath, spec.CondaEnv)
		fi, err := os.Stat(envDir)
		if err != nil {
			return nil, fmt.Errorf("conda env %s: %w", envDir, err)
		}
		if !fi.IsDir() {
			return nil, fmt.Errorf("conda env %s is not a directory", envDir)
		}
		set("CONDA_DEFAULT_ENV", spec.CondaEnv)
		set("CONDA_PREFIX", envDir)
		bin := filepath.Join(envDir, "bin")
		if cur, ok := vars["PATH"]; ok && cur != "" {
			set("PATH", bin+string(os.PathListSeparator)+cur)
		} else {
			set("PATH", bin)
		}
	}

	env := make([]string, 0, len(order))
	for _, k := range order {
		env = append(env, k+"="+vars[k])
	}
	return env, nil
}

func execScript(ctx context.Context, argv []string, dir string, env []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

var moduleExportRe = regexp.MustCompile(`(?m)^\s*(?:export\s+)?([A-Za-z_][A-Za-z0-9_]*)=([^;\n]*);?\s*(?:export\s+\w+\s*;?)?$`)

// moduleEnv shells out to modulecmd, the way the original job scripts ran
// `module load`, and captures the exports it would apply.
func moduleEnv(ctx context.Context, name string) (map[string]string, error) {
	cmd := exec.CommandContext(ctx, "modulecmd", "sh", "load", name)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("modulecmd failed: %w", err)
	}
	return ParseModuleOutput(string(out)), nil
}

// ParseModuleOutput extracts KEY=value assignments from modulecmd's shell
// output. Values keep surrounding quotes stripped; anything that is not an
// assignment is ignored.
func ParseModuleOutput(out string) map[string]string {
	vars := map[string]string{}
	for _, m := range moduleExportRe.FindAllStringSubmatch(out, -1) {
		v := strings.TrimSpace(m[2])
		v = strings.Trim(v, `"'`)
		vars[m[1]] = v
	}
	return vars
}
