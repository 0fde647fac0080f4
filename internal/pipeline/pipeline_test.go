package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vodflow/internal/mediaservice"
	"vodflow/internal/pipeline"
	"vodflow/internal/services"
)

type fakeService struct {
	calls []string

	failStep string
	failErr  error

	uploadPolicy mediaservice.AccessPolicy
	readPolicy   mediaservice.AccessPolicy
	asset        mediaservice.Asset
	writeLocator mediaservice.Locator
	readLocator  mediaservice.Locator
	processor    mediaservice.MediaProcessor
	job          mediaservice.JobHandle
	outputAsset  mediaservice.Asset
}

func newFakeService() *fakeService {
	return &fakeService{
		uploadPolicy: mediaservice.AccessPolicy{ID: "policy-write", Name: "UploadPolicy", Permissions: mediaservice.PermissionWrite},
		readPolicy:   mediaservice.AccessPolicy{ID: "policy-read", Name: "ReadPolicy", Permissions: mediaservice.PermissionRead},
		writeLocator: mediaservice.Locator{
			ID:                     "loc-write",
			Type:                   mediaservice.LocatorSAS,
			BaseURI:                "https://store.example.net/container",
			ContentAccessComponent: "?sv=sig",
		},
		readLocator: mediaservice.Locator{
			ID:   "loc-read",
			Type: mediaservice.LocatorOnDemandOrigin,
			Path: "https://origin.example.net/out/",
		},
		processor:   mediaservice.MediaProcessor{ID: "nb:mpid:UUID:proc", Name: "Media Encoder Standard"},
		job:         mediaservice.JobHandle{ID: "job-1", Name: "job", OutputAssetsURI: "https://api.example.net/Jobs('job-1')/OutputMediaAssets"},
		outputAsset: mediaservice.Asset{ID: "asset-out", Name: "EncodedOutput"},
	}
}

func (f *fakeService) record(step string) error {
	f.calls = append(f.calls, step)
	if f.failStep == step {
		if f.failErr != nil {
			return f.failErr
		}
		return errors.New(step + " failed")
	}
	return nil
}

func (f *fakeService) Token(context.Context) (string, error) {
	if err := f.record("token"); err != nil {
		return "", err
	}
	return "bearer-token", nil
}

func (f *fakeService) FetchOrCreateAccessPolicy(_ context.Context, _, name string, permissions mediaservice.PolicyPermission) (mediaservice.AccessPolicy, error) {
	if err := f.record("policy:" + name); err != nil {
		return mediaservice.AccessPolicy{}, err
	}
	if permissions == mediaservice.PermissionWrite {
		return f.uploadPolicy, nil
	}
	return f.readPolicy, nil
}

func (f *fakeService) CreateAsset(_ context.Context, _, name string) (mediaservice.Asset, error) {
	if err := f.record("create-asset"); err != nil {
		return mediaservice.Asset{}, err
	}
	f.asset = mediaservice.Asset{ID: "asset-in", Name: name}
	return f.asset, nil
}

func (f *fakeService) FetchValidOrCreateLocator(_ context.Context, _, policyID, assetID string, typ mediaservice.LocatorType) (mediaservice.Locator, error) {
	if err := f.record("locator:" + policyID + ":" + assetID); err != nil {
		return mediaservice.Locator{}, err
	}
	if typ == mediaservice.LocatorSAS {
		return f.writeLocator, nil
	}
	return f.readLocator, nil
}

func (f *fakeService) CreateFileInfos(_ context.Context, _, assetID string) error {
	return f.record("file-infos:" + assetID)
}

func (f *fakeService) LookupMediaProcessor(_ context.Context, _, name string) (mediaservice.MediaProcessor, error) {
	if err := f.record("lookup-processor:" + name); err != nil {
		return mediaservice.MediaProcessor{}, err
	}
	return f.processor, nil
}

func (f *fakeService) SubmitJob(_ context.Context, _, assetID, assetName, processorID string) (mediaservice.JobHandle, error) {
	if err := f.record("submit-job:" + assetID + ":" + processorID); err != nil {
		return mediaservice.JobHandle{}, err
	}
	_ = assetName
	return f.job, nil
}

func (f *fakeService) WaitForJob(_ context.Context, _, jobID string) (mediaservice.JobState, error) {
	if err := f.record("wait-job:" + jobID); err != nil {
		return 0, err
	}
	return mediaservice.JobFinished, nil
}

func (f *fakeService) ResolveOutputAsset(_ context.Context, _, uri string) (mediaservice.Asset, error) {
	if err := f.record("resolve-output:" + uri); err != nil {
		return mediaservice.Asset{}, err
	}
	return f.outputAsset, nil
}

type fakeUploader struct {
	url      string
	fileName string
	size     int
	err      error
	called   bool
}

func (f *fakeUploader) Upload(_ context.Context, uploadURL string, data []byte, fileName string) error {
	f.called = true
	f.url = uploadURL
	f.fileName = fileName
	f.size = len(data)
	return f.err
}

func writeSourceFile(t *testing.T, name string, size int) string {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write source file: %v", err)
	}
	return path
}

func newOrchestrator(t *testing.T, svc *fakeService, up *fakeUploader, mutate func(*pipeline.Options)) *pipeline.Orchestrator {
	t.Helper()
	opts := pipeline.Options{
		Service:          svc,
		Uploader:         up,
		UploadPolicyName: "UploadPolicy",
		ReadPolicyName:   "ReadPolicy",
		AssetNamePrefix:  "VodflowAsset",
		ProcessorID:      "nb:mpid:UUID:proc",
	}
	if mutate != nil {
		mutate(&opts)
	}
	orch, err := pipeline.New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return orch
}

func TestRunExecutesStepsInOrder(t *testing.T) {
	svc := newFakeService()
	up := &fakeUploader{}
	orch := newOrchestrator(t, svc, up, nil)
	orch.SetNowFunc(func() time.Time { return time.UnixMilli(1750000000000) })

	source := writeSourceFile(t, "input.mp4", 1024)
	result, err := orch.Run(context.Background(), source)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		"token",
		"policy:UploadPolicy",
		"create-asset",
		"locator:policy-write:asset-in",
		"file-infos:asset-in",
		"submit-job:asset-in:nb:mpid:UUID:proc",
		"wait-job:job-1",
		"policy:ReadPolicy",
		"resolve-output:" + svc.job.OutputAssetsURI,
		"locator:policy-read:asset-out",
	}
	if len(svc.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", svc.calls, want)
	}
	for i, call := range want {
		if svc.calls[i] != call {
			t.Fatalf("call %d = %q, want %q (all: %v)", i, svc.calls[i], call, svc.calls)
		}
	}

	if !up.called {
		t.Fatal("uploader was never invoked")
	}
	if up.url != "https://store.example.net/container/input.mp4?sv=sig" {
		t.Errorf("upload URL = %q", up.url)
	}
	if up.fileName != "input.mp4" || up.size != 1024 {
		t.Errorf("upload got file %q size %d", up.fileName, up.size)
	}

	if result.AssetName != "VodflowAsset_1750000000000" {
		t.Errorf("asset name = %q", result.AssetName)
	}
	if result.AssetID != "asset-in" || result.JobID != "job-1" || result.OutputAssetID != "asset-out" {
		t.Errorf("result ids = %+v", result)
	}
	if result.StreamingPath != "https://origin.example.net/out/" {
		t.Errorf("streaming path = %q", result.StreamingPath)
	}
	if result.RequestID == "" {
		t.Error("request id is empty")
	}
	if got := result.ManifestURL(); got != "https://origin.example.net/out/manifest(format=mpd-time-csf)" {
		t.Errorf("manifest URL = %q", got)
	}
}

func TestRunAbortsOnStepFailure(t *testing.T) {
	svc := newFakeService()
	svc.failStep = "submit-job:asset-in:nb:mpid:UUID:proc"
	svc.failErr = services.Wrap(services.ErrJob, "jobs", "submit", "boom", nil)
	up := &fakeUploader{}
	orch := newOrchestrator(t, svc, up, nil)

	source := writeSourceFile(t, "input.mp4", 64)
	result, err := orch.Run(context.Background(), source)
	if !errors.Is(err, services.ErrJob) {
		t.Fatalf("Run error = %v, want ErrJob", err)
	}

	for _, call := range svc.calls {
		switch call {
		case "wait-job:job-1", "policy:ReadPolicy":
			t.Fatalf("step %q ran after the failing step", call)
		}
	}
	if result.AssetID != "asset-in" {
		t.Errorf("partial result should carry the input asset id, got %+v", result)
	}
	if result.JobID != "" || result.StreamingPath != "" {
		t.Errorf("partial result carries post-failure fields: %+v", result)
	}
}

func TestRunFailedUploadSkipsJobSubmission(t *testing.T) {
	svc := newFakeService()
	up := &fakeUploader{err: services.Wrap(services.ErrUpload, "blobupload", "put-block", "block 0", nil)}
	orch := newOrchestrator(t, svc, up, nil)

	source := writeSourceFile(t, "input.mp4", 64)
	_, err := orch.Run(context.Background(), source)
	if !errors.Is(err, services.ErrUpload) {
		t.Fatalf("Run error = %v, want ErrUpload", err)
	}
	for _, call := range svc.calls {
		if call == "file-infos:asset-in" || call == "submit-job:asset-in:nb:mpid:UUID:proc" {
			t.Fatalf("step %q ran after upload failure", call)
		}
	}
}

func TestRunLooksUpProcessorWhenIDUnset(t *testing.T) {
	svc := newFakeService()
	up := &fakeUploader{}
	orch := newOrchestrator(t, svc, up, func(opts *pipeline.Options) {
		opts.ProcessorID = ""
		opts.ProcessorName = "Media Encoder Standard"
	})

	source := writeSourceFile(t, "input.mp4", 64)
	if _, err := orch.Run(context.Background(), source); err != nil {
		t.Fatalf("Run: %v", err)
	}

	sawLookup := false
	for _, call := range svc.calls {
		if call == "lookup-processor:Media Encoder Standard" {
			sawLookup = true
		}
	}
	if !sawLookup {
		t.Fatalf("processor lookup never happened: %v", svc.calls)
	}
}

func TestRunSkipsProcessorLookupWhenIDSet(t *testing.T) {
	svc := newFakeService()
	up := &fakeUploader{}
	orch := newOrchestrator(t, svc, up, nil)

	source := writeSourceFile(t, "input.mp4", 64)
	if _, err := orch.Run(context.Background(), source); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, call := range svc.calls {
		if call == "lookup-processor:Media Encoder Standard" {
			t.Fatal("processor lookup ran despite configured id")
		}
	}
}

func TestRunMissingSourceFile(t *testing.T) {
	svc := newFakeService()
	orch := newOrchestrator(t, svc, &fakeUploader{}, nil)

	_, err := orch.Run(context.Background(), filepath.Join(t.TempDir(), "absent.mp4"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("Run error = %v, want ErrValidation", err)
	}
	if len(svc.calls) != 0 {
		t.Fatalf("service was called for a missing file: %v", svc.calls)
	}
}

func TestRunEmptySourceFile(t *testing.T) {
	svc := newFakeService()
	orch := newOrchestrator(t, svc, &fakeUploader{}, nil)

	source := writeSourceFile(t, "empty.mp4", 0)
	_, err := orch.Run(context.Background(), source)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("Run error = %v, want ErrValidation", err)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	svc := newFakeService()
	up := &fakeUploader{}
	base := pipeline.Options{
		Service:          svc,
		Uploader:         up,
		UploadPolicyName: "UploadPolicy",
		ReadPolicyName:   "ReadPolicy",
		AssetNamePrefix:  "VodflowAsset",
		ProcessorID:      "nb:mpid:UUID:proc",
	}

	cases := []struct {
		name   string
		mutate func(*pipeline.Options)
	}{
		{"missing service", func(o *pipeline.Options) { o.Service = nil }},
		{"missing uploader", func(o *pipeline.Options) { o.Uploader = nil }},
		{"missing upload policy name", func(o *pipeline.Options) { o.UploadPolicyName = "" }},
		{"missing read policy name", func(o *pipeline.Options) { o.ReadPolicyName = "" }},
		{"missing asset prefix", func(o *pipeline.Options) { o.AssetNamePrefix = "" }},
		{"missing processor", func(o *pipeline.Options) { o.ProcessorID = ""; o.ProcessorName = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := base
			tc.mutate(&opts)
			if _, err := pipeline.New(opts); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("New error = %v, want ErrValidation", err)
			}
		})
	}
}
