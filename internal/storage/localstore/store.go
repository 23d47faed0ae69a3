package localstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	repoerrors "github.com/cgwalters/cosa-rojig-repoize/errors"
	"github.com/cgwalters/cosa-rojig-repoize/internal/storage"
)

// tempPrefix marks in-flight writes; such files never appear in listings.
const tempPrefix = ".upload-"

// Store is a storage.Store backed by a go-billy filesystem.
type Store struct {
	fs     billy.Filesystem
	logger *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store on fsys.
func New(fsys billy.Filesystem, opts ...Option) *Store {
	s := &Store{
		fs:     fsys,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewOS creates a Store on the OS filesystem rooted at /.
func NewOS(opts ...Option) *Store {
	return New(osfs.New("/"), opts...)
}

// NewInMemory creates a Store on an empty in-memory filesystem.
func NewInMemory(opts ...Option) *Store {
	return New(memfs.New(), opts...)
}

// Filesystem returns the underlying filesystem.
//
//nolint:ireturn // exposes the adapter target for tests.
func (s *Store) Filesystem() billy.Filesystem {
	return s.fs
}

// List returns every file whose key starts with prefix. A missing directory
// lists as empty.
func (s *Store) List(_ context.Context, prefix string) ([]storage.Object, error) {
	root := "/"
	if i := strings.LastIndex(prefix, "/"); i > 0 {
		root = prefix[:i]
	}

	if _, err := s.fs.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, repoerrors.NewStorageError("list", "", prefix, err)
	}

	var objects []storage.Object
	err := util.Walk(s.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), tempPrefix) {
			return nil
		}

		key := strings.TrimPrefix(filepath.ToSlash(p), "/")
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		objects = append(objects, storage.Object{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, repoerrors.NewStorageError("list", "", prefix, err)
	}

	s.logger.Debug("listed files", "prefix", prefix, "count", len(objects))
	return objects, nil
}

// Get reads a whole file.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	data, err := util.ReadFile(s.fs, key)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, repoerrors.NewStorageError("get", "", key, repoerrors.ErrObjectNotFound)
		}
		return nil, repoerrors.NewStorageError("get", "", key, err)
	}
	return data, nil
}

// Put writes body to a temporary file next to key and renames it into place
// once exactly size bytes have been copied. A failed put leaves no file at key.
func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64, opts *storage.PutOptions) error {
	if opts == nil {
		opts = &storage.PutOptions{}
	}

	dir := path.Dir(key)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return repoerrors.NewStorageError("put", "", key, err)
	}

	tmp, err := util.TempFile(s.fs, dir, tempPrefix)
	if err != nil {
		return repoerrors.NewStorageError("put", "", key, err)
	}

	n, err := io.Copy(tmp, storage.NewProgressReader(&contextReader{ctx: ctx, r: body}, opts.ProgressTracker, size))
	if err == nil && n != size {
		err = fmt.Errorf("%w: wrote %d bytes, expected %d", repoerrors.ErrSizeMismatch, n, size)
	}
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err == nil {
		err = s.fs.Rename(tmp.Name(), key)
	}
	if err != nil {
		if removeErr := s.fs.Remove(tmp.Name()); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			s.logger.Warn("failed to remove temporary file", "path", tmp.Name(), "error", removeErr)
		}
		if opts.ProgressTracker != nil {
			opts.ProgressTracker.Error(err)
		}
		return repoerrors.NewStorageError("put", "", key, err)
	}

	if opts.ProgressTracker != nil {
		opts.ProgressTracker.Complete()
	}
	s.logger.Debug("wrote file", "key", key, "size", n)
	return nil
}

// contextReader stops a copy once ctx is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	//nolint:wrapcheck // io.Reader interface contract - error comes from underlying reader
	return c.r.Read(p)
}
