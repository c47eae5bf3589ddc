package cmds

import (
	"context"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"

	"github.com/ocean-color-lab/s3-dispatch/pkg/activate"
)

type ActivateCommand struct{ *gcmds.CommandDescription }

type ActivateSettings struct {
	Config string `glazed.parameter:"config"`
	DryRun bool   `glazed.parameter:"dry-run"`
}

func NewActivateCommand() (*ActivateCommand, error) {
	layer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}

	cd := gcmds.NewCommandDescription(
		"activate",
		gcmds.WithShort("Set up a runtime environment and run its script once"),
		gcmds.WithFlags(
			parameters.NewParameterDefinition("config", parameters.ParameterTypeString, parameters.WithRequired(true), parameters.WithHelp("Activation YAML config"), parameters.WithShortFlag("c")),
			parameters.NewParameterDefinition("dry-run", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Resolve the environment without running the script")),
		),
		gcmds.WithLayersList(layer),
	)
	return &ActivateCommand{cd}, nil
}

func (c *ActivateCommand) Run(ctx context.Context, parsed *glayers.ParsedLayers) error {
	s := &ActivateSettings{}
	if err := parsed.InitializeStruct(glayers.DefaultSlug, s); err != nil {
		return err
	}
	spec, err := activate.LoadSpec(s.Config)
	if err != nil {
		return err
	}
	return activate.Run(ctx, spec, activate.Options{DryRun: s.DryRun})
}

var _ gcmds.BareCommand = &ActivateCommand{}
