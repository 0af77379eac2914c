// Package remoteapi implements the remote content API tier: each file's
// content is addressed as a single-blob OCI artifact, resolved by a tag
// derived from its Key and fetched as a registry blob — the same
// resolve-then-fetch flow the teacher's registry client uses for whole
// archive manifests, narrowed here to one blob per requested key.
package remoteapi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"

	"github.com/sapling-scm/filestore/core"
)

// Client is a RemoteAPIStore implementation backed by an OCI registry.
type Client struct {
	repo   *remote.Repository
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for debug-level tracing, matching the
// teacher's log() accessor pattern; default is a discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithCredentials configures static registry credentials.
func WithCredentials(username, password string) Option {
	return func(c *Client) {
		c.repo.Client = &auth.Client{
			Credential: auth.StaticCredential(c.repo.Reference.Registry, auth.Credential{
				Username: username,
				Password: password,
			}),
		}
	}
}

// WithPlainHTTP disables TLS for the registry connection (local/test
// registries).
func WithPlainHTTP() Option {
	return func(c *Client) { c.repo.PlainHTTP = true }
}

// New builds a Client addressing the repository identified by ref (e.g.
// "registry.example.com/filestore/content").
func New(ref string, opts ...Option) (*Client, error) {
	repo, err := remote.NewRepository(ref)
	if err != nil {
		return nil, fmt.Errorf("remoteapi: open repository %s: %w", ref, err)
	}
	c := &Client{repo: repo, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// referenceForKey derives a stable, registry-legal tag from a Key.
func referenceForKey(k core.Key) string {
	sum := sha256.Sum256([]byte(k.Path + "\x00" + string(k.Hgid[:])))
	return "file-" + hex.EncodeToString(sum[:])
}

// FilesBlocking resolves and fetches each key's content blob. Keys with no
// matching manifest in the registry are simply omitted from the result,
// not treated as an error.
func (c *Client) FilesBlocking(ctx context.Context, keys []core.Key) ([]core.FileEntry, error) {
	out := make([]core.FileEntry, 0, len(keys))
	for _, k := range keys {
		entry, ok, err := c.fetchOne(ctx, k)
		if err != nil {
			return out, fmt.Errorf("remoteapi: fetch %s: %w", k, err)
		}
		if !ok {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (c *Client) fetchOne(ctx context.Context, k core.Key) (core.FileEntry, bool, error) {
	ref := referenceForKey(k)
	desc, err := c.repo.Resolve(ctx, ref)
	if err != nil {
		if errors.Is(err, errdef.ErrNotFound) {
			c.log().Debug("remote api miss", "key", k, "ref", ref)
			return core.FileEntry{}, false, nil
		}
		return core.FileEntry{}, false, err
	}

	rc, err := c.repo.Blobs().Fetch(ctx, desc)
	if err != nil {
		return core.FileEntry{}, false, err
	}
	defer rc.Close()

	raw, err := content.ReadAll(rc, desc)
	if err != nil {
		return core.FileEntry{}, false, fmt.Errorf("read blob: %w", err)
	}
	return core.FileEntry{Key: k, Content: raw, Meta: core.Metadata{}}, true, nil
}

// Push uploads content for key as a single-blob artifact, used by tests
// and any future write path; the core engine's Upload remains
// unimplemented, per the non-goal.
func (c *Client) Push(ctx context.Context, k core.Key, data []byte) error {
	desc := ocispec.Descriptor{
		MediaType: "application/vnd.sapling.file.content.v1",
		Digest:    core.Sha256(sha256.Sum256(data)).Digest(),
		Size:      int64(len(data)),
	}
	if err := c.repo.Push(ctx, desc, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("remoteapi: push blob: %w", err)
	}
	return c.repo.Tag(ctx, desc, referenceForKey(k))
}
