package typesync

import (
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"github.com/matzehuels/mftypes/pkg/errors"
	"github.com/matzehuels/mftypes/pkg/manifest"
)

// Status is the result of one install attempt.
type Status string

const (
	StatusInstalled Status = "installed"
	StatusFailed    Status = "failed"
	StatusPruned    Status = "pruned"
)

// Outcome records what happened to one file of one remote.
type Outcome struct {
	Remote string
	Entry  string // manifest entry, root-relative slash path
	URL    string
	Path   string // local path written or removed
	Status Status
	Err    error
}

// RemoteReport is the result of syncing one remote.
type RemoteReport struct {
	Name     string
	BaseURL  string
	Manifest manifest.Manifest // entries the remote published this run
	Err      error             // remote-level failure (resolve, manifest fetch, decode)
	Files    []Outcome
	Duration time.Duration
}

// Installed returns the number of files written for this remote.
func (r *RemoteReport) Installed() int { return r.count(StatusInstalled) }

// Failed returns the number of failed files, counting a remote-level
// failure as one.
func (r *RemoteReport) Failed() int {
	n := r.count(StatusFailed)
	if r.Err != nil {
		n++
	}
	return n
}

// Pruned returns the number of stale files removed for this remote.
func (r *RemoteReport) Pruned() int { return r.count(StatusPruned) }

// OK reports whether the manifest was fetched and every file installed.
func (r *RemoteReport) OK() bool { return r.Failed() == 0 }

func (r *RemoteReport) count(s Status) int {
	n := 0
	for _, o := range r.Files {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Report aggregates a sync run across all remotes.
type Report struct {
	RunID    string
	Remotes  []*RemoteReport // ordered by remote name
	Duration time.Duration

	// StateErr is set when install state could not be loaded or saved.
	StateErr error
}

// Remote returns the report for name, or nil.
func (r *Report) Remote(name string) *RemoteReport {
	for _, rr := range r.Remotes {
		if rr.Name == name {
			return rr
		}
	}
	return nil
}

// Installed returns the total number of files written.
func (r *Report) Installed() int {
	n := 0
	for _, rr := range r.Remotes {
		n += rr.Installed()
	}
	return n
}

// Failed returns the total number of failures.
func (r *Report) Failed() int {
	n := 0
	for _, rr := range r.Remotes {
		n += rr.Failed()
	}
	return n
}

// Pruned returns the total number of stale files removed.
func (r *Report) Pruned() int {
	n := 0
	for _, rr := range r.Remotes {
		n += rr.Pruned()
	}
	return n
}

// Failures returns every failed outcome, with remote-level failures
// reported as an outcome without an entry.
func (r *Report) Failures() []Outcome {
	var out []Outcome
	for _, rr := range r.Remotes {
		if rr.Err != nil {
			out = append(out, Outcome{Remote: rr.Name, URL: rr.BaseURL, Status: StatusFailed, Err: rr.Err})
		}
		for _, o := range rr.Files {
			if o.Status == StatusFailed {
				out = append(out, o)
			}
		}
	}
	return out
}

// Err joins all failures into one error, or returns nil.
func (r *Report) Err() error {
	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(failures))
	for _, f := range failures {
		if f.Entry != "" {
			errs = append(errs, fmt.Errorf("%s: %s: %w", f.Remote, f.Entry, f.Err))
		} else {
			errs = append(errs, fmt.Errorf("%s: %w", f.Remote, f.Err))
		}
	}
	return errors.Wrap(errors.ErrCodeNetwork, stderrors.Join(errs...),
		"%d of %d remote(s) incomplete", r.failedRemotes(), len(r.Remotes))
}

func (r *Report) failedRemotes() int {
	n := 0
	for _, rr := range r.Remotes {
		if !rr.OK() {
			n++
		}
	}
	return n
}

// Summary returns a one-line description of the run.
func (r *Report) Summary() string {
	s := fmt.Sprintf("%d remote(s): %d file(s) installed, %d failed", len(r.Remotes), r.Installed(), r.Failed())
	if p := r.Pruned(); p > 0 {
		s += fmt.Sprintf(", %d pruned", p)
	}
	return s
}

func (r *Report) sort() {
	sort.Slice(r.Remotes, func(i, j int) bool { return r.Remotes[i].Name < r.Remotes[j].Name })
}
