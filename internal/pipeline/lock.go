package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// ErrLocked is returned when another run already holds the lock for a target
// directory.
var ErrLocked = errors.New("another avi2mp4 run is active for this directory")

// AcquireRunLock takes a non-blocking advisory lock keyed to the target
// directory, so two concurrent runs cannot interleave conversions over the
// same tree. The caller must Unlock the returned lock when the run ends.
func AcquireRunLock(targetDir string) (*flock.Flock, error) {
	abs, err := filepath.Abs(targetDir)
	if err != nil {
		abs = targetDir
	}
	// Deterministic lock name per directory; v5 uuid of the absolute path.
	key := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+abs)).String()
	lock := flock.New(filepath.Join(os.TempDir(), "avi2mp4-"+key+".lock"))

	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return lock, nil
}
