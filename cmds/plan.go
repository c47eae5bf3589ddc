package cmds

import (
	"context"
	"strings"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"

	"github.com/ocean-color-lab/s3-dispatch/pkg/batchlist"
	"github.com/ocean-color-lab/s3-dispatch/pkg/cmdutil"
	"github.com/ocean-color-lab/s3-dispatch/pkg/dispatch"
)

type PlanCommand struct{ *gcmds.CommandDescription }

type PlanSettings struct {
	BatchList   string   `glazed.parameter:"batch-list"`
	Config      string   `glazed.parameter:"config"`
	ROI         string   `glazed.parameter:"roi"`
	BBox        string   `glazed.parameter:"bbox"`
	DownloadDir string   `glazed.parameter:"download-dir"`
	Batches     []string `glazed.parameter:"batches"`
}

func NewPlanCommand() (*PlanCommand, error) {
	glazedLayers, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, err
	}
	commandLayer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}
	cd := gcmds.NewCommandDescription(
		"plan",
		gcmds.WithShort("Show the invocations a dispatch run would make, without running anything"),
		gcmds.WithFlags(
			parameters.NewParameterDefinition("batch-list", parameters.ParameterTypeString, parameters.WithHelp("Newline-delimited batch token file"), parameters.WithShortFlag("b")),
			parameters.NewParameterDefinition("config", parameters.ParameterTypeString, parameters.WithHelp("Dispatch YAML config"), parameters.WithShortFlag("c")),
			parameters.NewParameterDefinition("roi", parameters.ParameterTypeString, parameters.WithHelp("Region of interest as a WKT POLYGON")),
			parameters.NewParameterDefinition("bbox", parameters.ParameterTypeString, parameters.WithHelp("Region of interest as MIN_LON,MIN_LAT,MAX_LON,MAX_LAT")),
			parameters.NewParameterDefinition("download-dir", parameters.ParameterTypeString, parameters.WithHelp("Directory the downloader writes products into")),
			parameters.NewParameterDefinition("batches", parameters.ParameterTypeStringList, parameters.WithHelp("Only plan batches with these names; default all")),
		),
		gcmds.WithLayersList(glazedLayers, commandLayer),
	)
	return &PlanCommand{cd}, nil
}

func (c *PlanCommand) RunIntoGlazeProcessor(ctx context.Context, parsed *glayers.ParsedLayers, gp middlewares.Processor) error {
	ps := &PlanSettings{}
	if err := parsed.InitializeStruct(glayers.DefaultSlug, ps); err != nil {
		return err
	}
	s := &DispatchSettings{
		BatchList:   ps.BatchList,
		Config:      ps.Config,
		ROI:         ps.ROI,
		BBox:        ps.BBox,
		DownloadDir: ps.DownloadDir,
		Batches:     ps.Batches,
	}
	cfg, err := resolveDispatchConfig(s)
	if err != nil {
		return err
	}
	items, err := batchlist.Load(cfg.BatchList)
	if err != nil {
		return err
	}
	items = cmdutil.FilterItems(items, s.Batches, batchName)
	tasks, err := dispatch.BuildTasks(items, cfg)
	if err != nil {
		return err
	}

	for i, t := range tasks {
		name := ""
		collection := ""
		if sp, err := batchlist.ParseSpec(t.Token); err == nil {
			name = sp.Name
			collection = sp.CollectionID()
		}
		row := types.NewRow(
			types.MRP("seq", t.Seq),
			types.MRP("name", name),
			types.MRP("token", t.Token),
			types.MRP("collection", collection),
			types.MRP("command", strings.Join(t.Argv, " ")),
			types.MRP("download_dir", cfg.DownloadDir),
			types.MRP("line", items[i].Line),
		)
		if err := gp.AddRow(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

var _ gcmds.GlazeCommand = &PlanCommand{}
