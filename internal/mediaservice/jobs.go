package mediaservice

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vodflow/internal/logging"
	"vodflow/internal/services"
)

// taskConfiguration is the fixed encoding preset requested for every job.
const taskConfiguration = "Adaptive Streaming"

// SubmitJob posts an encoding job for the asset. The job references the input
// asset by URI, runs a single adaptive-streaming task, and names its one
// output asset after the input asset. The returned handle carries the
// deferred URI of the output asset collection for later resolution.
func (c *Client) SubmitJob(ctx context.Context, token, assetID, assetName, processorID string) (JobHandle, error) {
	if strings.TrimSpace(assetID) == "" || strings.TrimSpace(assetName) == "" {
		return JobHandle{}, services.Wrap(services.ErrValidation, "jobs", "submit", "asset id and name must not be empty", nil)
	}
	if strings.TrimSpace(processorID) == "" {
		return JobHandle{}, services.Wrap(services.ErrValidation, "jobs", "submit", "processor id must not be empty", nil)
	}

	taskBody := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?><taskBody><inputAsset>JobInputAsset(0)</inputAsset><outputAsset assetName=%q>JobOutputAsset(0)</outputAsset></taskBody>`, assetName)
	body := map[string]any{
		"Name": assetName + "_Encoding_Job",
		"InputMediaAssets": []map[string]any{
			{"__metadata": map[string]string{
				"uri": fmt.Sprintf("%s/Assets('%s')", c.endpoint, assetID),
			}},
		},
		"Tasks": []map[string]any{
			{
				"Configuration":    taskConfiguration,
				"MediaProcessorId": processorID,
				"TaskBody":         taskBody,
			},
		},
	}

	var resp struct {
		D struct {
			ID                string `json:"Id"`
			Name              string `json:"Name"`
			OutputMediaAssets struct {
				Deferred struct {
					URI string `json:"uri"`
				} `json:"__deferred"`
			} `json:"OutputMediaAssets"`
		} `json:"d"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.url("Jobs"), modeVerbose, token, body, &resp); err != nil {
		return JobHandle{}, services.Wrap(services.ErrJob, "jobs", "submit", assetName, err)
	}
	if resp.D.ID == "" {
		return JobHandle{}, services.Wrap(services.ErrJob, "jobs", "submit", "response carried no job id", nil)
	}

	handle := JobHandle{
		ID:              resp.D.ID,
		Name:            resp.D.Name,
		OutputAssetsURI: resp.D.OutputMediaAssets.Deferred.URI,
	}
	c.logger.Info("encoding job submitted",
		logging.String("job_id", handle.ID),
		logging.String("job_name", handle.Name))
	return handle, nil
}

// GetJobState fetches the job's current state code.
func (c *Client) GetJobState(ctx context.Context, token, jobID string) (JobState, error) {
	var resp struct {
		D struct {
			State JobState `json:"State"`
		} `json:"d"`
	}
	url := c.url(fmt.Sprintf("Jobs('%s')/State", jobID))
	if err := c.doJSON(ctx, http.MethodGet, url, modeVerbose, token, nil, &resp); err != nil {
		return 0, services.Wrap(services.ErrJob, "jobs", "state", jobID, err)
	}
	return resp.D.State, nil
}

// WaitForJob polls the job's state at the client's poll interval until it
// reaches Finished (code 3). Only that code terminates the wait; queued,
// scheduled, and processing codes keep polling. The loop is bounded by the
// client's maximum wait, after which ErrTimeout is reported, and by ctx
// cancellation. A transport failure during a poll surfaces immediately.
func (c *Client) WaitForJob(ctx context.Context, token, jobID string) (JobState, error) {
	if strings.TrimSpace(jobID) == "" {
		return 0, services.Wrap(services.ErrValidation, "jobs", "wait", "job id must not be empty", nil)
	}

	deadline := c.now().Add(c.jobMaxWait)
	for {
		if !c.now().Before(deadline) {
			return 0, services.Wrap(services.ErrTimeout, "jobs", "wait",
				fmt.Sprintf("job %s unfinished after %s", jobID, c.jobMaxWait), nil)
		}

		select {
		case <-ctx.Done():
			return 0, services.Wrap(services.ErrJob, "jobs", "wait", jobID, ctx.Err())
		case <-time.After(c.pollInterval):
		}

		state, err := c.GetJobState(ctx, token, jobID)
		if err != nil {
			return 0, err
		}
		c.logger.Debug("job state observed",
			logging.String("job_id", jobID),
			logging.String("state", state.String()))
		if state == JobFinished {
			return state, nil
		}
	}
}

// ResolveOutputAsset dereferences a job's deferred output asset collection
// and returns its first entry.
func (c *Client) ResolveOutputAsset(ctx context.Context, token, outputAssetsURI string) (Asset, error) {
	if strings.TrimSpace(outputAssetsURI) == "" {
		return Asset{}, services.Wrap(services.ErrValidation, "jobs", "output-asset", "deferred uri must not be empty", nil)
	}
	var result collection[Asset]
	if err := c.doJSON(ctx, http.MethodGet, outputAssetsURI, modeJSON, token, nil, &result); err != nil {
		return Asset{}, services.Wrap(services.ErrResource, "jobs", "output-asset", "", err)
	}
	if len(result.Value) == 0 {
		return Asset{}, services.Wrap(services.ErrResource, "jobs", "output-asset", "job produced no output assets", nil)
	}
	asset := result.Value[0]
	c.logger.Debug("output asset resolved",
		logging.String("asset_id", asset.ID),
		logging.String("asset_name", asset.Name))
	return asset, nil
}
