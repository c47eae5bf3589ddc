package activate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Spec describes one runtime environment and the single script to run
// inside it. Setup is strictly ordered: module loads, env exports, conda
// environment, working directory, then the script. Any step failing means
// the script never runs.
type Spec struct {
	Modules       []string          `yaml:"modules"`
	Env           map[string]string `yaml:"env"`
	CondaEnvsPath string            `yaml:"conda_envs_path"`
	CondaEnv      string            `yaml:"conda_env"`
	Workdir       string            `yaml:"workdir"`
	Interpreter   string            `yaml:"interpreter"`
	Script        string            `yaml:"script"`
}

// LoadSpec reads an activation spec. The interpreter falls back to the
// viper setting `activate.interpreter`, then to python3.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read activation config: %w", err)
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse activation YAML: %w", err)
	}
	if spec.Interpreter == "" {
		spec.Interpreter = viper.GetString("activate.interpreter")
	}
	if spec.Interpreter == "" {
		spec.Interpreter = "python3"
	}
	if strings.TrimSpace(spec.Script) == "" {
		return nil, fmt.Errorf("activation config %s has no script", path)
	}
	return &spec, nil
}

// expandPath expands a leading ~ to the home directory.
func expandPath(p string) string {
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
