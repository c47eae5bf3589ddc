package cmds

import (
	"context"
	"fmt"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"

	"github.com/ocean-color-lab/s3-dispatch/pkg/batchlist"
	"github.com/ocean-color-lab/s3-dispatch/pkg/roi"
)

type ValidateCommand struct{ *gcmds.CommandDescription }

type ValidateSettings struct {
	BatchList string `glazed.parameter:"batch-list"`
	ROI       string `glazed.parameter:"roi"`
	Strict    bool   `glazed.parameter:"strict"`
}

func NewValidateCommand() (*ValidateCommand, error) {
	glazedLayers, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, err
	}
	commandLayer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}
	cd := gcmds.NewCommandDescription(
		"validate",
		gcmds.WithShort("Check a batch list (and optionally an ROI) before burning a cluster allocation on it"),
		gcmds.WithFlags(
			parameters.NewParameterDefinition("batch-list", parameters.ParameterTypeString, parameters.WithRequired(true), parameters.WithShortFlag("b"), parameters.WithHelp("Newline-delimited batch token file")),
			parameters.NewParameterDefinition("roi", parameters.ParameterTypeString, parameters.WithHelp("ROI WKT to validate alongside the list")),
			parameters.NewParameterDefinition("strict", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Fail when any token does not parse as name,start,end[,collection]")),
		),
		gcmds.WithLayersList(glazedLayers, commandLayer),
	)
	return &ValidateCommand{cd}, nil
}

func (c *ValidateCommand) RunIntoGlazeProcessor(ctx context.Context, parsed *glayers.ParsedLayers, gp middlewares.Processor) error {
	s := &ValidateSettings{}
	if err := parsed.InitializeStruct(glayers.DefaultSlug, s); err != nil {
		return err
	}

	if s.ROI != "" {
		if err := roi.ValidateWKT(s.ROI); err != nil {
			return fmt.Errorf("invalid ROI: %w", err)
		}
	}

	items, err := batchlist.Load(s.BatchList)
	if err != nil {
		return err
	}

	seenNames := map[string]int{}
	badTokens := 0
	for _, it := range items {
		pairs := []types.MapRowPair{
			types.MRP("line", it.Line),
			types.MRP("token", it.Token),
		}
		sp, perr := batchlist.ParseSpec(it.Token)
		if perr != nil {
			badTokens++
			pairs = append(pairs,
				types.MRP("status", "opaque"),
				types.MRP("detail", perr.Error()),
			)
		} else {
			status := "ok"
			detail := ""
			if prev, dup := seenNames[sp.Name]; dup {
				status = "duplicate"
				detail = fmt.Sprintf("name '%s' already used on line %d", sp.Name, prev)
			} else {
				seenNames[sp.Name] = it.Line
			}
			pairs = append(pairs,
				types.MRP("status", status),
				types.MRP("name", sp.Name),
				types.MRP("start", sp.Start.Format("2006-01-02")),
				types.MRP("end", sp.End.Format("2006-01-02")),
				types.MRP("collection", sp.CollectionID()),
			)
			if detail != "" {
				pairs = append(pairs, types.MRP("detail", detail))
			}
		}
		if err := gp.AddRow(ctx, types.NewRow(pairs...)); err != nil {
			return err
		}
	}

	if len(items) == 0 {
		return fmt.Errorf("batch list %s has no work items", s.BatchList)
	}
	if s.Strict && badTokens > 0 {
		return fmt.Errorf("%d of %d tokens do not parse as batch specs", badTokens, len(items))
	}
	return nil
}

var _ gcmds.GlazeCommand = &ValidateCommand{}
