package cmds

import (
	"context"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"

	"github.com/ocean-color-lab/s3-dispatch/pkg/sched"
	"github.com/ocean-color-lab/s3-dispatch/pkg/schedlayer"
)

type SlotsCommand struct{ *gcmds.CommandDescription }

func NewSlotsCommand() (*SlotsCommand, error) {
	glazedLayers, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, err
	}
	cmdLayer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}

	cd := gcmds.NewCommandDescription(
		"slots",
		gcmds.WithShort("Show the scheduler environment and the worker count a dispatch run would use"),
		gcmds.WithLayersList(glazedLayers, cmdLayer),
	)
	_, err = schedlayer.AddSchedLayerToCommand(cd)
	if err != nil {
		return nil, err
	}
	return &SlotsCommand{cd}, nil
}

// Glaze-style command producing structured rows
func (c *SlotsCommand) RunIntoGlazeProcessor(ctx context.Context, parsed *glayers.ParsedLayers, gp middlewares.Processor) error {
	ss, err := schedlayer.GetSchedSettings(parsed)
	if err != nil {
		return err
	}

	info := sched.Detect()
	resolved, resolveErr := sched.Resolve(ss.Jobs, 0, ss.Nodefile)
	pairs := []types.MapRowPair{
		types.MRP("scheduler", info.Scheduler),
		types.MRP("in_job", info.InJob),
		types.MRP("nodefile", info.Nodefile),
		types.MRP("allocated_slots", info.Slots),
		types.MRP("workers", resolved),
	}
	if resolveErr != nil {
		pairs = append(pairs, types.MRP("error", resolveErr.Error()))
	}
	return gp.AddRow(ctx, types.NewRow(pairs...))
}

var _ gcmds.GlazeCommand = &SlotsCommand{}
