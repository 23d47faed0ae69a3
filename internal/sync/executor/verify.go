package executor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	repoerrors "github.com/cgwalters/cosa-rojig-repoize/errors"
)

// verifyingReader counts and hashes a body. At end of stream it replaces
// io.EOF with an error if the body did not match the declared size and
// digest, so a consumer copying the body fails instead of completing.
type verifyingReader struct {
	r      io.Reader
	size   int64
	digest string
	hash   hash.Hash
	n      int64
	done   bool
	err    error
}

// newVerifyingReader accepts digest in either hex case.
func newVerifyingReader(r io.Reader, size int64, digest string) *verifyingReader {
	return &verifyingReader{r: r, size: size, digest: strings.ToLower(digest), hash: sha256.New()}
}

func (v *verifyingReader) Read(p []byte) (int, error) {
	if v.err != nil {
		return 0, v.err
	}
	if v.done {
		return 0, io.EOF
	}

	n, err := v.r.Read(p)
	if n > 0 {
		v.n += int64(n)
		v.hash.Write(p[:n])
		if v.n > v.size {
			v.err = fmt.Errorf("%w: body exceeds declared %d bytes", repoerrors.ErrSizeMismatch, v.size)
			return n, v.err
		}
	}

	switch {
	case err == io.EOF:
		if verr := v.verify(); verr != nil {
			v.err = verr
			return n, verr
		}
		v.done = true
		return n, io.EOF
	case err != nil:
		v.err = err
		return n, err
	}
	return n, nil
}

func (v *verifyingReader) verify() error {
	if v.n != v.size {
		return fmt.Errorf("%w: got %d bytes, declared %d", repoerrors.ErrSizeMismatch, v.n, v.size)
	}
	if v.digest != "" {
		if got := hex.EncodeToString(v.hash.Sum(nil)); got != v.digest {
			return fmt.Errorf("%w: got sha256 %s, declared %s", repoerrors.ErrChecksumMismatch, got, v.digest)
		}
	}
	return nil
}

// Err returns the first read or verification error.
func (v *verifyingReader) Err() error {
	return v.err
}

// finish drains any unread remainder so the whole body is verified.
func (v *verifyingReader) finish() error {
	if v.done || v.err != nil {
		return v.err
	}
	if _, err := io.Copy(io.Discard, v); err != nil {
		return err
	}
	return nil
}
