package cmds

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/rs/zerolog/log"

	"github.com/ocean-color-lab/s3-dispatch/pkg/batchlist"
	"github.com/ocean-color-lab/s3-dispatch/pkg/cmdutil"
	"github.com/ocean-color-lab/s3-dispatch/pkg/dispatch"
	"github.com/ocean-color-lab/s3-dispatch/pkg/roi"
	"github.com/ocean-color-lab/s3-dispatch/pkg/sched"
	"github.com/ocean-color-lab/s3-dispatch/pkg/schedlayer"
)

type DispatchCommand struct{ *gcmds.CommandDescription }

type DispatchSettings struct {
	BatchList   string   `glazed.parameter:"batch-list"`
	Config      string   `glazed.parameter:"config"`
	ROI         string   `glazed.parameter:"roi"`
	BBox        string   `glazed.parameter:"bbox"`
	DownloadDir string   `glazed.parameter:"download-dir"`
	Joblog      string   `glazed.parameter:"joblog"`
	Halt        bool     `glazed.parameter:"halt"`
	ETA         bool     `glazed.parameter:"eta"`
	DryRun      bool     `glazed.parameter:"dry-run"`
	Batches     []string `glazed.parameter:"batches"`
}

func NewDispatchCommand() (*DispatchCommand, error) {
	layer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}

	cd := gcmds.NewCommandDescription(
		"dispatch",
		gcmds.WithShort("Run the downloader once per batch token through a bounded worker pool"),
		gcmds.WithFlags(
			parameters.NewParameterDefinition("batch-list", parameters.ParameterTypeString, parameters.WithHelp("Newline-delimited batch token file"), parameters.WithShortFlag("b")),
			parameters.NewParameterDefinition("config", parameters.ParameterTypeString, parameters.WithHelp("Dispatch YAML config"), parameters.WithShortFlag("c")),
			parameters.NewParameterDefinition("roi", parameters.ParameterTypeString, parameters.WithHelp("Region of interest as a WKT POLYGON")),
			parameters.NewParameterDefinition("bbox", parameters.ParameterTypeString, parameters.WithHelp("Region of interest as MIN_LON,MIN_LAT,MAX_LON,MAX_LAT (converted to WKT)")),
			parameters.NewParameterDefinition("download-dir", parameters.ParameterTypeString, parameters.WithHelp("Directory the downloader writes products into")),
			parameters.NewParameterDefinition("joblog", parameters.ParameterTypeString, parameters.WithHelp("Job log path; default <download-dir>/logs/joblog.txt")),
			parameters.NewParameterDefinition("halt", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Abort outstanding work on first batch failure")),
			parameters.NewParameterDefinition("eta", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Log periodic progress and remaining-time estimates")),
			parameters.NewParameterDefinition("dry-run", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Print planned invocations without running them")),
			parameters.NewParameterDefinition("batches", parameters.ParameterTypeStringList, parameters.WithHelp("Only dispatch batches with these names; default all")),
		),
		gcmds.WithLayersList(layer),
	)
	_, err = schedlayer.AddSchedLayerToCommand(cd)
	if err != nil {
		return nil, err
	}
	return &DispatchCommand{cd}, nil
}

func (c *DispatchCommand) Run(ctx context.Context, parsed *glayers.ParsedLayers) error {
	s := &DispatchSettings{}
	if err := parsed.InitializeStruct(glayers.DefaultSlug, s); err != nil {
		return err
	}
	ss, err := schedlayer.GetSchedSettings(parsed)
	if err != nil {
		return err
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
	if len(items) == 0 {
		return fmt.Errorf("batch list %s has no work items", cfg.BatchList)
	}

	workers, err := sched.Resolve(ss.Jobs, cfg.Jobs, ss.Nodefile)
	if err != nil {
		return err
	}

	tasks, err := dispatch.BuildTasks(items, cfg)
	if err != nil {
		return err
	}

	if s.DryRun {
		for _, t := range tasks {
			fmt.Printf("[%d/%d] %s\n", t.Seq, len(tasks), strings.Join(t.Argv, " "))
		}
		return nil
	}

	jl, err := dispatch.NewJobLog(cfg.Joblog)
	if err != nil {
		return err
	}
	defer func() { _ = jl.Close() }()

	log.Info().Int("batches", len(tasks)).Int("workers", workers).
		Str("joblog", cfg.Joblog).Str("download_dir", cfg.DownloadDir).Msg("dispatch start")

	pool := &dispatch.Pool{Workers: workers, Halt: s.Halt, ETA: s.ETA, Log: jl}
	summary, err := pool.Dispatch(ctx, tasks)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return &dispatch.ExitError{
			Code: summary.ExitCode(),
			Msg:  fmt.Sprintf("%d of %d batches failed; see %s", summary.Failed, summary.Total, cfg.Joblog),
		}
	}
	fmt.Printf("✓ All %d batches completed successfully\n", summary.Total)
	return nil
}

var _ gcmds.BareCommand = &DispatchCommand{}

// batchName keys a work item for --batches selection: the spec-form name
// when the token parses, otherwise the raw token.
func batchName(it batchlist.Item) string {
	if sp, err := batchlist.ParseSpec(it.Token); err == nil {
		return sp.Name
	}
	return it.Token
}

// resolveDispatchConfig merges the optional YAML config with flags (flags
// win) and applies defaults, so the run is fully determined before any
// work is dispatched.
func resolveDispatchConfig(s *DispatchSettings) (*dispatch.Config, error) {
	cfg := &dispatch.Config{}
	if s.Config != "" {
		loaded, err := dispatch.LoadConfig(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if s.BatchList != "" {
		cfg.BatchList = s.BatchList
	}
	if cfg.BatchList == "" {
		return nil, fmt.Errorf("no batch list: pass --batch-list or set batch_list in the config")
	}
	if s.DownloadDir != "" {
		cfg.DownloadDir = s.DownloadDir
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = "s3_products"
	}
	if s.ROI != "" && s.BBox != "" {
		return nil, fmt.Errorf("--roi and --bbox are mutually exclusive")
	}
	if s.ROI != "" {
		cfg.ROI = s.ROI
	}
	if s.BBox != "" {
		b, err := roi.ParseBBox(s.BBox)
		if err != nil {
			return nil, err
		}
		cfg.ROI = b.WKT()
	}
	if cfg.ROI == "" {
		cfg.ROI = roi.DefaultWKT
	}
	if err := roi.ValidateWKT(cfg.ROI); err != nil {
		return nil, fmt.Errorf("invalid ROI: %w", err)
	}
	if s.Joblog != "" {
		cfg.Joblog = s.Joblog
	}
	if cfg.Joblog == "" {
		cfg.Joblog = filepath.Join(cfg.DownloadDir, "logs", "joblog.txt")
	}
	if cfg.Command == "" {
		cfg.Command = dispatch.DefaultCommand
	}
	if len(cfg.Args) == 0 {
		cfg.Args = dispatch.DefaultArgs
	}
	return cfg, nil
}
