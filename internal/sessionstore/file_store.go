package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/2beens/garminpartner/internal/session"
	"github.com/2beens/garminpartner/internal/telemetry/tracing"
	"github.com/2beens/garminpartner/pkg"

	log "github.com/sirupsen/logrus"
)

// FileStore keeps the sealed session in a single file only the user can read.
type FileStore struct {
	path   string
	sealer *Sealer
}

func NewFileStore(path string, sealer *Sealer) *FileStore {
	return &FileStore{
		path:   path,
		sealer: sealer,
	}
}

func (fs *FileStore) Load(ctx context.Context) (_ *session.Session, err error) {
	_, span := tracing.StartSpan(ctx, "sessionstore.file.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	sealed, err := os.ReadFile(fs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	s, unsealErr := unseal(fs.sealer, sealed)
	if unsealErr != nil {
		// a file we cannot read back is as good as no session
		log.Warnf("session file %s unreadable, ignoring it: %s", fs.path, unsealErr)
		return nil, ErrNotFound
	}

	return s, nil
}

func (fs *FileStore) Save(ctx context.Context, s *session.Session) (err error) {
	_, span := tracing.StartSpan(ctx, "sessionstore.file.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	sealed, err := seal(fs.sealer, s)
	if err != nil {
		return err
	}

	if err := pkg.EnsureDir(filepath.Dir(fs.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	if err := pkg.WriteFileAtomic(fs.path, sealed, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}

	log.Debugf("session stored in %s", fs.path)
	return nil
}

func (fs *FileStore) Clear(ctx context.Context) (err error) {
	_, span := tracing.StartSpan(ctx, "sessionstore.file.clear")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := os.Remove(fs.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}

	return nil
}
