package schedlayer

import (
	"fmt"

	glzcms "github.com/go-go-golems/glazed/pkg/cmds"
	glzlayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
)

const SchedLayerSlug = "scheduler"

type SchedSettings struct {
	Nodefile string `glazed.parameter:"nodefile"`
	Jobs     int    `glazed.parameter:"jobs"`
}

// NewSchedLayer defines a reusable parameter layer for scheduler-derived
// worker slots.
func NewSchedLayer() (glzlayers.ParameterLayer, error) {
	return glzlayers.NewParameterLayer(
		SchedLayerSlug,
		"Cluster scheduler settings",
		glzlayers.WithParameterDefinitions(
			parameters.NewParameterDefinition(
				"nodefile",
				parameters.ParameterTypeString,
				parameters.WithHelp("Override the scheduler nodefile path (default $PBS_NODEFILE)"),
				parameters.WithDefault(""),
			),
			parameters.NewParameterDefinition(
				"jobs",
				parameters.ParameterTypeInteger,
				parameters.WithHelp("Worker count override; 0 derives it from the node allocation"),
				parameters.WithDefault(0),
				parameters.WithShortFlag("j"),
			),
		),
	)
}

// AddSchedLayerToCommand attaches the layer to a command description.
func AddSchedLayerToCommand(c glzcms.Command) (glzcms.Command, error) {
	l, err := NewSchedLayer()
	if err != nil {
		return nil, err
	}
	c.Description().Layers.Set(SchedLayerSlug, l)
	return c, nil
}

// GetSchedSettings returns parsed scheduler settings.
func GetSchedSettings(parsed *glzlayers.ParsedLayers) (*SchedSettings, error) {
	var s SchedSettings
	if err := parsed.InitializeStruct(SchedLayerSlug, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scheduler settings: %w", err)
	}
	return &s, nil
}
