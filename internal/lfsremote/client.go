// Package lfsremote implements the remote large-file transport: a
// git-lfs-style batch API (POST a manifest of {oid,size}, receive
// per-object download actions), with objects downloaded concurrently over
// a bounded worker pool — the same worker-count heuristics the teacher
// uses for parallel decompression, generalized here to parallel object
// downloads.
package lfsremote

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/sapling-scm/filestore/core"
)

// parallelMinCount is the object-count threshold below which downloads run
// serially; below this, goroutine dispatch overhead isn't worth it,
// matching the teacher's own size-gated parallel/serial split.
const parallelMinCount = 4

// defaultWorkers bounds concurrent downloads when Workers is left at its
// zero value ("auto").
const defaultWorkers = 8

// Client is a RemoteLFSStore implementation speaking the git-lfs batch API.
type Client struct {
	baseURL string
	http    *http.Client
	// Workers bounds concurrent object downloads. 0 selects defaultWorkers
	// ("auto"), a negative value forces serial downloads, a positive value
	// is used as-is — matching the teacher's own workers-int convention.
	Workers int
}

// New builds a Client against baseURL (e.g. "https://lfs.example.com").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{baseURL: baseURL, http: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for batch and download
// requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithWorkers sets the worker-count policy (see Client.Workers).
func WithWorkers(n int) Option {
	return func(c *Client) { c.Workers = n }
}

type batchObject struct {
	Oid  string `json:"oid"`
	Size uint64 `json:"size"`
}

type batchRequest struct {
	Operation string        `json:"operation"`
	Objects   []batchObject `json:"objects"`
}

type downloadAction struct {
	Href   string            `json:"href"`
	Header map[string]string `json:"header,omitempty"`
}

type batchResponseObject struct {
	Oid     string `json:"oid"`
	Size    uint64 `json:"size"`
	Actions struct {
		Download *downloadAction `json:"download"`
	} `json:"actions"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type batchResponse struct {
	Objects []batchResponseObject `json:"objects"`
}

// BatchFetch posts a batch manifest, then downloads each returned object
// concurrently over a bounded worker pool, invoking cb for each
// successfully downloaded blob. cb may be called concurrently from
// multiple goroutines.
func (c *Client) BatchFetch(ctx context.Context, pairs []core.Sha256SizePair, cb func(core.Sha256, []byte) error) error {
	if len(pairs) == 0 {
		return nil
	}

	resp, err := c.batch(ctx, pairs)
	if err != nil {
		return fmt.Errorf("lfsremote: batch request: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workerCount(len(resp.Objects)))

	for _, obj := range resp.Objects {
		obj := obj
		g.Go(func() error {
			if obj.Error != nil {
				return fmt.Errorf("lfsremote: object %s: %s (code %d)", obj.Oid, obj.Error.Message, obj.Error.Code)
			}
			if obj.Actions.Download == nil {
				return nil
			}
			sha, err := parseOid(obj.Oid)
			if err != nil {
				return err
			}
			data, err := c.download(gctx, *obj.Actions.Download)
			if err != nil {
				return fmt.Errorf("lfsremote: download %s: %w", obj.Oid, err)
			}
			return cb(sha, data)
		})
	}
	return g.Wait()
}

// workerCount applies the teacher's 0=auto / negative=serial /
// positive=fixed convention, additionally forcing serial execution below
// parallelMinCount regardless of configuration.
func (c *Client) workerCount(objectCount int) int {
	if objectCount < parallelMinCount {
		return 1
	}
	switch {
	case c.Workers < 0:
		return 1
	case c.Workers == 0:
		return defaultWorkers
	default:
		return c.Workers
	}
}

func (c *Client) batch(ctx context.Context, pairs []core.Sha256SizePair) (*batchResponse, error) {
	objects := make([]batchObject, len(pairs))
	for i, p := range pairs {
		objects[i] = batchObject{Oid: p.Sha256.String(), Size: p.Size}
	}
	body, err := json.Marshal(batchRequest{Operation: "download", Objects: objects})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/objects/batch", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/vnd.git-lfs+json")
	req.Header.Set("Accept", "application/vnd.git-lfs+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode batch response: %w", err)
	}
	return &out, nil
}

func (c *Client) download(ctx context.Context, action downloadAction) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, action.Href, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range action.Header {
		req.Header.Set(k, v)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func parseOid(oid string) (core.Sha256, error) {
	var sha core.Sha256
	decoded, err := hex.DecodeString(oid)
	if err != nil || len(decoded) != len(sha) {
		return core.Sha256{}, fmt.Errorf("invalid oid %q", oid)
	}
	copy(sha[:], decoded)
	return sha, nil
}
