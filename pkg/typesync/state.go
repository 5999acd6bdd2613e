package typesync

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/mftypes/pkg/cache"
	"github.com/matzehuels/mftypes/pkg/errors"
	"github.com/matzehuels/mftypes/pkg/manifest"
)

// InstallState is what was installed into one install directory.
type InstallState struct {
	InstallDir string                 `json:"install_dir"`
	Remotes    map[string]RemoteState `json:"remotes"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// RemoteState is the last manifest a remote delivered.
type RemoteState struct {
	BaseURL  string            `json:"base_url"`
	Files    manifest.Manifest `json:"files"`
	RunID    string            `json:"run_id"`
	SyncedAt time.Time         `json:"synced_at"`
}

// State persists InstallState in a cache backend.
type State struct {
	cache cache.Cache
	keyer cache.Keyer
}

// NewState creates a State. If keyer is nil, a DefaultKeyer is used.
func NewState(c cache.Cache, keyer cache.Keyer) *State {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &State{cache: c, keyer: keyer}
}

// Load returns the recorded state for installDir. A directory that was
// never synced yields an empty state.
func (s *State) Load(ctx context.Context, installDir string) (*InstallState, error) {
	st := &InstallState{InstallDir: absDir(installDir), Remotes: map[string]RemoteState{}}
	data, ok, err := s.cache.Get(ctx, s.keyer.StateKey(installDir))
	if err != nil || !ok {
		return st, err
	}
	if err := json.Unmarshal(data, st); err != nil {
		return &InstallState{InstallDir: absDir(installDir), Remotes: map[string]RemoteState{}},
			errors.Wrap(errors.ErrCodeSerialization, err, "decode install state")
	}
	if st.Remotes == nil {
		st.Remotes = map[string]RemoteState{}
	}
	return st, nil
}

// Save records st.
func (s *State) Save(ctx context.Context, st *InstallState) error {
	st.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSerialization, err, "encode install state")
	}
	return s.cache.Set(ctx, s.keyer.StateKey(st.InstallDir), data, cache.TTLState)
}

// Clear forgets the state of installDir. Installed files are kept.
func (s *State) Clear(ctx context.Context, installDir string) error {
	return s.cache.Delete(ctx, s.keyer.StateKey(installDir))
}

// Owners returns, for every recorded entry, the remotes that list it.
func (st *InstallState) Owners() map[string][]string {
	owners := make(map[string][]string)
	for name, rs := range st.Remotes {
		for _, e := range rs.Files {
			owners[e] = append(owners[e], name)
		}
	}
	return owners
}

func absDir(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

// removeEntry deletes <installDir>/<entry> and then every parent directory
// that became empty, stopping at installDir.
func removeEntry(installDir, entry string) (string, error) {
	target := filepath.Join(installDir, filepath.FromSlash(entry))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return target, errors.Wrap(errors.ErrCodeFileSystem, err, "remove %s", target)
	}
	root := filepath.Clean(installDir)
	for dir := filepath.Dir(target); dir != root && len(dir) > len(root); dir = filepath.Dir(dir) {
		if err := os.Remove(dir); err != nil {
			break
		}
	}
	return target, nil
}

func joinPath(dir, entry string) string {
	return filepath.Join(dir, filepath.FromSlash(entry))
}
