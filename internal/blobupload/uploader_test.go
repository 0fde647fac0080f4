package blobupload_test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"vodflow/internal/blobupload"
	"vodflow/internal/services"
)

func TestSplitBlocksLayout(t *testing.T) {
	const mib = 1024 * 1024
	tests := []struct {
		name      string
		size      int
		wantCount int
		wantLast  int
	}{
		{"exact multiple", 8 * mib, 2, 4 * mib},
		{"with remainder", 10 * mib, 3, 2 * mib},
		{"single small block", 100, 1, 100},
		{"one byte over", 4*mib + 1, 2, 1},
		{"empty", 0, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			blocks := blobupload.SplitBlocks(tc.size, "abc123.mp4")
			if len(blocks) != tc.wantCount {
				t.Fatalf("block count = %d, want %d", len(blocks), tc.wantCount)
			}
			for i, blk := range blocks {
				wantStart := i * 4 * mib
				if blk.Start != wantStart {
					t.Errorf("block %d start = %d, want %d", i, blk.Start, wantStart)
				}
				if i < len(blocks)-1 && blk.End-blk.Start != 4*mib {
					t.Errorf("block %d length = %d, want full block", i, blk.End-blk.Start)
				}
			}
			if tc.wantCount > 0 {
				last := blocks[len(blocks)-1]
				if last.End-last.Start != tc.wantLast {
					t.Errorf("last block length = %d, want %d", last.End-last.Start, tc.wantLast)
				}
				if last.End != tc.size {
					t.Errorf("last block end = %d, want %d", last.End, tc.size)
				}
			}
		})
	}
}

func TestSplitBlocksEncodesIDs(t *testing.T) {
	blocks := blobupload.SplitBlocks(10*1024*1024, "abc123.mp4")
	for i, blk := range blocks {
		want := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("b-abc1%08d", i)))
		if blk.EncodedID != want {
			t.Fatalf("block %d id = %q, want %q", i, blk.EncodedID, want)
		}
	}
}

func TestSplitBlocksShortFileName(t *testing.T) {
	blocks := blobupload.SplitBlocks(10, "ab")
	want := base64.StdEncoding.EncodeToString([]byte("b-ab00000000"))
	if blocks[0].EncodedID != want {
		t.Fatalf("id = %q, want %q", blocks[0].EncodedID, want)
	}
}

// uploadRecorder captures block and commit PUTs issued against a fake
// storage endpoint.
type uploadRecorder struct {
	mu         sync.Mutex
	blockIDs   []string
	blockSizes []int
	commitBody string
	failBlock  string
	failCommit bool
}

func (rec *uploadRecorder) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		switch query.Get("comp") {
		case "block":
			id := query.Get("blockid")
			body, _ := io.ReadAll(r.Body)
			rec.mu.Lock()
			fail := rec.failBlock != "" && rec.failBlock == id
			if !fail {
				rec.blockIDs = append(rec.blockIDs, id)
				rec.blockSizes = append(rec.blockSizes, len(body))
			}
			rec.mu.Unlock()
			if fail {
				http.Error(w, "block rejected", http.StatusInternalServerError)
				return
			}
			if bt := r.Header.Get("x-ms-blob-type"); bt != "BlockBlob" {
				t.Errorf("x-ms-blob-type = %q", bt)
			}
			w.WriteHeader(http.StatusCreated)
		case "blocklist":
			body, _ := io.ReadAll(r.Body)
			rec.mu.Lock()
			rec.commitBody = string(body)
			fail := rec.failCommit
			rec.mu.Unlock()
			if fail {
				http.Error(w, "commit rejected", http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected comp value %q", query.Get("comp"))
			http.Error(w, "bad request", http.StatusBadRequest)
		}
	}
}

func expectedID(fileName string, index int) string {
	return base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("b-%s%08d", fileName[:4], index)))
}

func TestUploadTenMiBFile(t *testing.T) {
	rec := &uploadRecorder{}
	server := httptest.NewServer(rec.handler(t))
	defer server.Close()

	const mib = 1024 * 1024
	data := make([]byte, 10*mib)
	uploader := blobupload.New(blobupload.Options{HTTPClient: server.Client()})
	if err := uploader.Upload(context.Background(), server.URL+"/container/abc123.mp4?sig=abc", data, "abc123.mp4"); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	wantIDs := []string{expectedID("abc123.mp4", 0), expectedID("abc123.mp4", 1), expectedID("abc123.mp4", 2)}
	if len(rec.blockIDs) != 3 {
		t.Fatalf("expected 3 block PUTs, got %d", len(rec.blockIDs))
	}
	for i, id := range rec.blockIDs {
		if id != wantIDs[i] {
			t.Errorf("block %d id = %q, want %q", i, id, wantIDs[i])
		}
	}
	wantSizes := []int{4 * mib, 4 * mib, 2 * mib}
	for i, size := range rec.blockSizes {
		if size != wantSizes[i] {
			t.Errorf("block %d size = %d, want %d", i, size, wantSizes[i])
		}
	}

	wantBody := `<?xml version="1.0" encoding="utf-8"?><BlockList>` +
		"<Latest>" + wantIDs[0] + "</Latest>" +
		"<Latest>" + wantIDs[1] + "</Latest>" +
		"<Latest>" + wantIDs[2] + "</Latest>" +
		"</BlockList>"
	if rec.commitBody != wantBody {
		t.Fatalf("commit body = %q, want %q", rec.commitBody, wantBody)
	}
}

func TestUploadConcurrentCommitStaysOrdered(t *testing.T) {
	rec := &uploadRecorder{}
	server := httptest.NewServer(rec.handler(t))
	defer server.Close()

	const mib = 1024 * 1024
	data := make([]byte, 9*mib)
	uploader := blobupload.New(blobupload.Options{HTTPClient: server.Client(), Concurrency: 4})
	if err := uploader.Upload(context.Background(), server.URL+"/c/f?sig=x", data, "file0001.mp4"); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if len(rec.blockIDs) != 3 {
		t.Fatalf("expected 3 block PUTs, got %d", len(rec.blockIDs))
	}
	// Commit order must reflect file offsets even if uploads interleaved.
	for i := 0; i < 3; i++ {
		want := "<Latest>" + expectedID("file0001.mp4", i) + "</Latest>"
		idx := strings.Index(rec.commitBody, want)
		if idx < 0 {
			t.Fatalf("commit body missing block %d: %q", i, rec.commitBody)
		}
		if i > 0 {
			prev := "<Latest>" + expectedID("file0001.mp4", i-1) + "</Latest>"
			if strings.Index(rec.commitBody, prev) > idx {
				t.Fatalf("commit body out of order: %q", rec.commitBody)
			}
		}
	}
}

func TestUploadAbortsOnBlockFailure(t *testing.T) {
	rec := &uploadRecorder{failBlock: expectedID("abc123.mp4", 1)}
	server := httptest.NewServer(rec.handler(t))
	defer server.Close()

	data := make([]byte, 10*1024*1024)
	uploader := blobupload.New(blobupload.Options{HTTPClient: server.Client()})
	err := uploader.Upload(context.Background(), server.URL+"/c/f?sig=x", data, "abc123.mp4")
	if !errors.Is(err, services.ErrUpload) {
		t.Fatalf("expected ErrUpload, got %v", err)
	}
	if rec.commitBody != "" {
		t.Fatal("commit issued despite block failure")
	}
}

func TestUploadReportsCommitFailure(t *testing.T) {
	rec := &uploadRecorder{failCommit: true}
	server := httptest.NewServer(rec.handler(t))
	defer server.Close()

	data := make([]byte, 1024)
	uploader := blobupload.New(blobupload.Options{HTTPClient: server.Client()})
	err := uploader.Upload(context.Background(), server.URL+"/c/f?sig=x", data, "abc123.mp4")
	if !errors.Is(err, services.ErrUpload) {
		t.Fatalf("expected ErrUpload after failed commit, got %v", err)
	}
}

func TestUploadRejectsEmptyInput(t *testing.T) {
	uploader := blobupload.New(blobupload.Options{})
	if err := uploader.Upload(context.Background(), "https://x/up?sig=a", nil, "a.mp4"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty data, got %v", err)
	}
	if err := uploader.Upload(context.Background(), " ", []byte{1}, "a.mp4"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty url, got %v", err)
	}
}
