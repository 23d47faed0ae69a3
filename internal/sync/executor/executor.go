package executor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime"
	"path"
	"time"

	"github.com/gabriel-vasile/mimetype"

	repoerrors "github.com/cgwalters/cosa-rojig-repoize/errors"
	"github.com/cgwalters/cosa-rojig-repoize/internal/storage"
	"github.com/cgwalters/cosa-rojig-repoize/internal/sync/planner"
)

// sniffLen is how much of a body is buffered for content type detection.
const sniffLen = 3072

// Source opens artifacts of a build stream.
type Source interface {
	OpenArtifact(ctx context.Context, id, arch, name string) (io.ReadCloser, int64, error)
	ArtifactURL(id, arch, name string) string
}

// Result summarizes executed transfers.
type Result struct {
	// Uploaded holds the names of transferred artifacts, in order
	Uploaded []string

	// BytesUploaded is the total bytes written
	BytesUploaded int64

	// Duration is how long the transfers took
	Duration time.Duration
}

// Executor copies artifacts from a Source into a Store.
type Executor struct {
	source Source
	store  storage.Store
	logger *slog.Logger
}

// New creates an Executor. A nil logger discards output.
func New(source Source, store storage.Store, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{source: source, store: store, logger: logger}
}

// Execute runs transfers in order and stops at the first failure. The
// result reports the transfers completed before it.
func (e *Executor) Execute(ctx context.Context, arch string, transfers []planner.Transfer) (*Result, error) {
	start := time.Now()
	result := &Result{}

	for _, t := range transfers {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, fmt.Errorf("transfer %s: %w", t.Name, err)
		}

		if err := e.transfer(ctx, arch, t); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}

		result.Uploaded = append(result.Uploaded, t.Name)
		result.BytesUploaded += int64(t.Size)
		e.logger.Info("uploaded", "path", t.Name, "build", t.BuildID, "key", t.Key, "size", t.Size)
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (e *Executor) transfer(ctx context.Context, arch string, t planner.Transfer) error {
	src := e.source.ArtifactURL(t.BuildID, arch, t.Name)

	if t.Size > math.MaxInt64 {
		return repoerrors.NewFetchError("transfer", src,
			fmt.Errorf("%w: declared size %d", repoerrors.ErrInvalidInput, t.Size))
	}
	size := int64(t.Size)

	body, length, err := e.source.OpenArtifact(ctx, t.BuildID, arch, t.Name)
	if err != nil {
		return err
	}
	defer body.Close()

	if length >= 0 && length != size {
		return repoerrors.NewFetchError("transfer", src,
			fmt.Errorf("%w: server declared %d bytes, metadata declared %d", repoerrors.ErrSizeMismatch, length, size))
	}

	verifier := newVerifyingReader(body, size, t.SHA256)
	buffered := bufio.NewReaderSize(verifier, sniffLen)

	// Peek stops short at EOF or on a verification error; either way the
	// error is seen again by the store when it reads the body.
	head, _ := buffered.Peek(sniffLen)
	contentType := detectContentType(head, t.Name)

	e.logger.Debug("transferring",
		"path", t.Name,
		"source", src,
		"key", t.Key,
		"size", size,
		"content_type", contentType)

	err = e.store.Put(ctx, t.Key, buffered, size, &storage.PutOptions{
		ContentType:     contentType,
		SHA256:          t.SHA256,
		ProgressTracker: newLogTracker(e.logger, t.Name),
	})
	if verr := verifier.Err(); verr != nil {
		return repoerrors.NewFetchError("transfer", src, verr)
	}
	if err != nil {
		return err
	}
	if err := verifier.finish(); err != nil {
		return repoerrors.NewFetchError("transfer", src, err)
	}
	return nil
}

// detectContentType sniffs the body head and falls back to the file extension.
func detectContentType(head []byte, name string) string {
	if len(head) > 0 {
		if m := mimetype.Detect(head); m != nil && !m.Is(storage.DefaultContentType) && !m.Is("text/plain") {
			return m.String()
		}
	}
	if byExt := mime.TypeByExtension(path.Ext(name)); byExt != "" {
		return byExt
	}
	if len(head) > 0 {
		return mimetype.Detect(head).String()
	}
	return storage.DefaultContentType
}
