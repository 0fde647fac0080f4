package blobupload

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"vodflow/internal/logging"
	"vodflow/internal/services"
)

// BlockSize is the fixed size of every upload block except possibly the last.
const BlockSize = 4 * 1024 * 1024

// blobContentType is stamped onto the committed object.
const blobContentType = "video/mp4"

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Options describes uploader construction parameters.
type Options struct {
	HTTPClient HTTPDoer
	Logger     *slog.Logger
	// Concurrency bounds how many blocks upload in parallel. Values below 2
	// keep the upload strictly sequential.
	Concurrency int
}

// Uploader performs chunked uploads against locator-derived URLs.
type Uploader struct {
	http        HTTPDoer
	logger      *slog.Logger
	concurrency int
}

// New constructs an uploader. Zero option fields fall back to a sequential
// uploader with a long-timeout HTTP client.
func New(opts Options) *Uploader {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Minute}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Uploader{
		http:        httpClient,
		logger:      logging.NewComponentLogger(logger, "blobupload"),
		concurrency: concurrency,
	}
}

// block is one contiguous chunk of the file, identified by an encoded id.
type block struct {
	index     int
	encodedID string
	start     int
	end       int
}

// splitBlocks computes the block layout for a file: ceil(size/BlockSize)
// blocks, block i covering bytes [i*BlockSize, min((i+1)*BlockSize, size)).
// Block ids are "b-" plus the first four characters of the file name plus the
// zero-padded index, base64-encoded so they stay short and sort in file
// order when listed.
func splitBlocks(size int, fileName string) []block {
	if size <= 0 {
		return nil
	}
	prefix := "b-" + firstN(fileName, 4)
	count := (size + BlockSize - 1) / BlockSize
	blocks := make([]block, 0, count)
	for i := 0; i < count; i++ {
		start := i * BlockSize
		end := start + BlockSize
		if end > size {
			end = size
		}
		raw := fmt.Sprintf("%s%08d", prefix, i)
		blocks = append(blocks, block{
			index:     i,
			encodedID: base64.StdEncoding.EncodeToString([]byte(raw)),
			start:     start,
			end:       end,
		})
	}
	return blocks
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Upload splits data into blocks, uploads each against uploadURL, and
// commits the ordered block list. The object only becomes live once the
// commit succeeds; the first block failure cancels any in-flight siblings
// and aborts without committing. Failed blocks are not retried.
func (u *Uploader) Upload(ctx context.Context, uploadURL string, data []byte, fileName string) error {
	if strings.TrimSpace(uploadURL) == "" {
		return services.Wrap(services.ErrValidation, "uploader", "upload", "upload url must not be empty", nil)
	}
	if len(data) == 0 {
		return services.Wrap(services.ErrValidation, "uploader", "upload", "file is empty", nil)
	}

	blocks := splitBlocks(len(data), fileName)
	u.logger.Info("upload started",
		logging.String("file", fileName),
		logging.Int("bytes", len(data)),
		logging.Int("blocks", len(blocks)),
		logging.Int("concurrency", u.concurrency))

	if err := u.uploadBlocks(ctx, uploadURL, data, blocks); err != nil {
		return err
	}
	if err := u.commit(ctx, uploadURL, blocks); err != nil {
		return err
	}

	u.logger.Info("upload committed",
		logging.String("file", fileName),
		logging.Int("blocks", len(blocks)))
	return nil
}

func (u *Uploader) uploadBlocks(ctx context.Context, uploadURL string, data []byte, blocks []block) error {
	if u.concurrency <= 1 {
		for _, blk := range blocks {
			if err := u.putBlock(ctx, uploadURL, data, blk); err != nil {
				return err
			}
		}
		return nil
	}

	// Bounded worker pool. Block ids are independent, so upload order does
	// not matter; the commit below restores file-offset order.
	groupCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, u.concurrency)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, blk := range blocks {
		select {
		case sem <- struct{}{}:
		case <-groupCtx.Done():
		}
		if groupCtx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(blk block) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := u.putBlock(groupCtx, uploadURL, data, blk); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				cancel()
			}
		}(blk)
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrUpload, "uploader", "blocks", "upload canceled", err)
	}
	return nil
}

func (u *Uploader) putBlock(ctx context.Context, uploadURL string, data []byte, blk block) error {
	blockURL := uploadURL + "&comp=block&blockid=" + blk.encodedID
	payload := data[blk.start:blk.end]

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, blockURL, bytes.NewReader(payload))
	if err != nil {
		return services.Wrap(services.ErrUpload, "uploader", "block", fmt.Sprintf("build request for block %d", blk.index), err)
	}
	req.Header.Set("x-ms-blob-type", "BlockBlob")

	resp, err := u.http.Do(req)
	if err != nil {
		return services.Wrap(services.ErrUpload, "uploader", "block", fmt.Sprintf("put block %d", blk.index), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return services.Wrap(services.ErrUpload, "uploader", "block",
			fmt.Sprintf("block %d returned %d", blk.index, resp.StatusCode), nil)
	}

	u.logger.Debug("block uploaded",
		logging.Int("block", blk.index),
		logging.Int("from", blk.start),
		logging.Int("to", blk.end))
	return nil
}

// commit finalizes the object with the block list in ascending index order,
// regardless of the order blocks finished uploading.
func (u *Uploader) commit(ctx context.Context, uploadURL string, blocks []block) error {
	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="utf-8"?><BlockList>`)
	for _, blk := range blocks {
		body.WriteString("<Latest>")
		body.WriteString(blk.encodedID)
		body.WriteString("</Latest>")
	}
	body.WriteString("</BlockList>")

	commitURL := uploadURL + "&comp=blocklist"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, commitURL, strings.NewReader(body.String()))
	if err != nil {
		return services.Wrap(services.ErrUpload, "uploader", "commit", "build request", err)
	}
	req.Header.Set("x-ms-blob-content-type", blobContentType)

	resp, err := u.http.Do(req)
	if err != nil {
		return services.Wrap(services.ErrUpload, "uploader", "commit", "put block list", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return services.Wrap(services.ErrUpload, "uploader", "commit",
			fmt.Sprintf("block list returned %d", resp.StatusCode), nil)
	}
	return nil
}
