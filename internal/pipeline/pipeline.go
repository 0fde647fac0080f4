package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"vodflow/internal/logging"
	"vodflow/internal/mediaservice"
	"vodflow/internal/services"
)

// manifestSuffix turns a streaming path into a DASH manifest URL.
const manifestSuffix = "manifest(format=mpd-time-csf)"

// MediaService is the remote service surface the orchestrator drives. It is
// satisfied by *mediaservice.Client.
type MediaService interface {
	Token(ctx context.Context) (string, error)
	FetchOrCreateAccessPolicy(ctx context.Context, token, name string, permissions mediaservice.PolicyPermission) (mediaservice.AccessPolicy, error)
	CreateAsset(ctx context.Context, token, name string) (mediaservice.Asset, error)
	FetchValidOrCreateLocator(ctx context.Context, token, policyID, assetID string, typ mediaservice.LocatorType) (mediaservice.Locator, error)
	CreateFileInfos(ctx context.Context, token, assetID string) error
	LookupMediaProcessor(ctx context.Context, token, name string) (mediaservice.MediaProcessor, error)
	SubmitJob(ctx context.Context, token, assetID, assetName, processorID string) (mediaservice.JobHandle, error)
	WaitForJob(ctx context.Context, token, jobID string) (mediaservice.JobState, error)
	ResolveOutputAsset(ctx context.Context, token, outputAssetsURI string) (mediaservice.Asset, error)
}

// BlobUploader pushes a local file's bytes to a write locator URL. It is
// satisfied by *blobupload.Uploader.
type BlobUploader interface {
	Upload(ctx context.Context, uploadURL string, data []byte, fileName string) error
}

// Options configures an Orchestrator.
type Options struct {
	Service  MediaService
	Uploader BlobUploader
	Logger   *slog.Logger

	// UploadPolicyName and ReadPolicyName select (or create) the write and
	// read access policies reused across runs.
	UploadPolicyName string
	ReadPolicyName   string

	// AssetNamePrefix seeds input asset names; the unix-millisecond creation
	// timestamp is appended to keep them unique.
	AssetNamePrefix string

	// ProcessorID, when set, skips the by-name processor lookup.
	ProcessorID   string
	ProcessorName string
}

// Result carries the identifiers a run established. On failure the fields
// populated before the failing step are still filled in, so callers can
// persist partial progress.
type Result struct {
	RequestID     string
	AssetID       string
	AssetName     string
	JobID         string
	OutputAssetID string
	StreamingPath string
}

// ManifestURL derives a DASH manifest URL by appending the fixed format
// suffix to the slash-terminated streaming path. Origins that publish
// manifests under a smooth-streaming entry ("<name>.ism/Manifest(...)")
// need that segment spliced in by the consumer; the run does not retain the
// encoded output's file listing to build it here.
func (r Result) ManifestURL() string {
	if r.StreamingPath == "" {
		return ""
	}
	path := r.StreamingPath
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path + manifestSuffix
}

// Orchestrator runs the transcode pipeline for one source file at a time.
type Orchestrator struct {
	service  MediaService
	uploader BlobUploader
	logger   *slog.Logger

	uploadPolicyName string
	readPolicyName   string
	assetNamePrefix  string
	processorID      string
	processorName    string

	now func() time.Time
}

// New validates opts and builds an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Service == nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "new", "media service is required", nil)
	}
	if opts.Uploader == nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "new", "uploader is required", nil)
	}
	if opts.UploadPolicyName == "" || opts.ReadPolicyName == "" {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "new", "policy names are required", nil)
	}
	if opts.AssetNamePrefix == "" {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "new", "asset name prefix is required", nil)
	}
	if opts.ProcessorID == "" && opts.ProcessorName == "" {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "new", "processor id or name is required", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		service:          opts.Service,
		uploader:         opts.Uploader,
		logger:           logger,
		uploadPolicyName: opts.UploadPolicyName,
		readPolicyName:   opts.ReadPolicyName,
		assetNamePrefix:  opts.AssetNamePrefix,
		processorID:      opts.ProcessorID,
		processorName:    opts.ProcessorName,
		now:              time.Now,
	}, nil
}

// state accumulates per-run values as the steps execute. Each step receives it
// by value and returns the next state, so a failing step cannot leave partial
// mutations behind.
type state struct {
	sourcePath string
	fileName   string
	data       []byte

	token         string
	writePolicyID string
	asset         mediaservice.Asset
	uploadURL     string
	processorID   string
	job           mediaservice.JobHandle
	readPolicyID  string
	outputAsset   mediaservice.Asset
	streamingPath string
}

type step struct {
	name string
	run  func(ctx context.Context, st state) (state, error)
}

// Run executes the full pipeline for sourcePath and returns the streaming
// location of the encoded output. The first failing step aborts the run; the
// returned Result still carries any identifiers established before the
// failure.
func (o *Orchestrator) Run(ctx context.Context, sourcePath string) (Result, error) {
	requestID := uuid.NewString()
	runLogger := o.logger.With(logging.String(logging.FieldRequestID, requestID))

	st := state{sourcePath: sourcePath, fileName: filepath.Base(sourcePath)}

	steps := []step{
		{name: "read-source", run: o.readSource},
		{name: "acquire-token", run: o.acquireToken},
		{name: "write-policy", run: o.writePolicy},
		{name: "create-asset", run: o.createAsset},
		{name: "write-locator", run: o.writeLocator},
		{name: "upload", run: o.upload},
		{name: "file-infos", run: o.fileInfos},
		{name: "resolve-processor", run: o.resolveProcessor},
		{name: "submit-job", run: o.submitJob},
		{name: "await-job", run: o.awaitJob},
		{name: "read-policy", run: o.readPolicy},
		{name: "resolve-output", run: o.resolveOutput},
		{name: "read-locator", run: o.readLocator},
	}

	runStart := o.now()
	runLogger.Info(
		"run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("source_file", sourcePath),
	)

	for _, s := range steps {
		stageLogger := runLogger.With(logging.String(logging.FieldStage, s.name))
		stageStart := o.now()
		stageLogger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

		next, err := s.run(ctx, st)
		if err != nil {
			stageLogger.Error(
				"stage failed",
				logging.String(logging.FieldEventType, "stage_failed"),
				logging.Error(err),
				logging.Duration("stage_duration", o.now().Sub(stageStart)),
			)
			return resultFrom(requestID, st), err
		}
		st = next
		stageLogger.Debug(
			"stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("stage_duration", o.now().Sub(stageStart)),
		)
	}

	runLogger.Info(
		"run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("streaming_path", st.streamingPath),
		logging.Duration("run_duration", o.now().Sub(runStart)),
	)
	return resultFrom(requestID, st), nil
}

func resultFrom(requestID string, st state) Result {
	return Result{
		RequestID:     requestID,
		AssetID:       st.asset.ID,
		AssetName:     st.asset.Name,
		JobID:         st.job.ID,
		OutputAssetID: st.outputAsset.ID,
		StreamingPath: st.streamingPath,
	}
}

func (o *Orchestrator) readSource(_ context.Context, st state) (state, error) {
	data, err := os.ReadFile(st.sourcePath)
	if err != nil {
		return st, services.Wrap(services.ErrValidation, "pipeline", "read-source", fmt.Sprintf("read %s", st.sourcePath), err)
	}
	if len(data) == 0 {
		return st, services.Wrap(services.ErrValidation, "pipeline", "read-source", fmt.Sprintf("%s is empty", st.sourcePath), nil)
	}
	st.data = data
	return st, nil
}

func (o *Orchestrator) acquireToken(ctx context.Context, st state) (state, error) {
	token, err := o.service.Token(ctx)
	if err != nil {
		return st, err
	}
	st.token = token
	return st, nil
}

func (o *Orchestrator) writePolicy(ctx context.Context, st state) (state, error) {
	policy, err := o.service.FetchOrCreateAccessPolicy(ctx, st.token, o.uploadPolicyName, mediaservice.PermissionWrite)
	if err != nil {
		return st, err
	}
	st.writePolicyID = policy.ID
	return st, nil
}

func (o *Orchestrator) createAsset(ctx context.Context, st state) (state, error) {
	name := o.assetNamePrefix + "_" + strconv.FormatInt(o.now().UnixMilli(), 10)
	asset, err := o.service.CreateAsset(ctx, st.token, name)
	if err != nil {
		return st, err
	}
	st.asset = asset
	return st, nil
}

func (o *Orchestrator) writeLocator(ctx context.Context, st state) (state, error) {
	locator, err := o.service.FetchValidOrCreateLocator(ctx, st.token, st.writePolicyID, st.asset.ID, mediaservice.LocatorSAS)
	if err != nil {
		return st, err
	}
	st.uploadURL = locator.BaseURI + "/" + st.fileName + locator.ContentAccessComponent
	return st, nil
}

func (o *Orchestrator) upload(ctx context.Context, st state) (state, error) {
	if err := o.uploader.Upload(ctx, st.uploadURL, st.data, st.fileName); err != nil {
		return st, err
	}
	return st, nil
}

func (o *Orchestrator) fileInfos(ctx context.Context, st state) (state, error) {
	if err := o.service.CreateFileInfos(ctx, st.token, st.asset.ID); err != nil {
		return st, err
	}
	return st, nil
}

func (o *Orchestrator) resolveProcessor(ctx context.Context, st state) (state, error) {
	if o.processorID != "" {
		st.processorID = o.processorID
		return st, nil
	}
	processor, err := o.service.LookupMediaProcessor(ctx, st.token, o.processorName)
	if err != nil {
		return st, err
	}
	st.processorID = processor.ID
	return st, nil
}

func (o *Orchestrator) submitJob(ctx context.Context, st state) (state, error) {
	job, err := o.service.SubmitJob(ctx, st.token, st.asset.ID, st.asset.Name, st.processorID)
	if err != nil {
		return st, err
	}
	st.job = job
	return st, nil
}

func (o *Orchestrator) awaitJob(ctx context.Context, st state) (state, error) {
	if _, err := o.service.WaitForJob(ctx, st.token, st.job.ID); err != nil {
		return st, err
	}
	return st, nil
}

func (o *Orchestrator) readPolicy(ctx context.Context, st state) (state, error) {
	policy, err := o.service.FetchOrCreateAccessPolicy(ctx, st.token, o.readPolicyName, mediaservice.PermissionRead)
	if err != nil {
		return st, err
	}
	st.readPolicyID = policy.ID
	return st, nil
}

func (o *Orchestrator) resolveOutput(ctx context.Context, st state) (state, error) {
	asset, err := o.service.ResolveOutputAsset(ctx, st.token, st.job.OutputAssetsURI)
	if err != nil {
		return st, err
	}
	st.outputAsset = asset
	return st, nil
}

func (o *Orchestrator) readLocator(ctx context.Context, st state) (state, error) {
	locator, err := o.service.FetchValidOrCreateLocator(ctx, st.token, st.readPolicyID, st.outputAsset.ID, mediaservice.LocatorOnDemandOrigin)
	if err != nil {
		return st, err
	}
	st.streamingPath = locator.Path
	return st, nil
}
