// Package pipeline runs the mftypes build: the producer stage that emits
// and publishes declarations, and the consumer stage that installs the
// declarations of configured remotes.
//
// This package is shared by every CLI entry point (build, emit, sync) so
// that stage ordering and error policy live in one place.
//
// # Stages
//
//  1. Emit: compile exposed components and merge them into index.d.ts
//  2. Manifest: write the root-relative file list (@types.json)
//  3. Pack: bundle the declaration tree into an archive (archive transport)
//  4. Sync: install every remote's declarations
//
// Stages 1-3 run when the configuration exposes components; stage 4 runs
// when it lists remotes. A failing stage never prevents the other role from
// running: problems are collected on the Result and reported at the end.
//
// # Usage
//
//	runner, err := pipeline.NewRunner(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer runner.Close()
//	result, err := runner.Execute(ctx, cfg)
package pipeline

import (
	"time"

	"github.com/matzehuels/mftypes/pkg/declaration"
	"github.com/matzehuels/mftypes/pkg/manifest"
	"github.com/matzehuels/mftypes/pkg/typesync"
)

// DefaultManifestCacheSize bounds the in-run manifest memo.
const DefaultManifestCacheSize = 256

// Result holds everything a run produced.
type Result struct {
	RunID string

	// Producer is nil when nothing is exposed.
	Producer *declaration.Result
	Manifest manifest.Manifest
	Archive  []string // archive entries, empty unless the archive transport is used

	// Sync is nil when no remote is configured.
	Sync *typesync.Report

	// ProducerErr is the error that stopped the producer stage, if any.
	ProducerErr error

	Stats Stats
}

// Stats records counts and stage durations.
type Stats struct {
	Modules      int
	Files        int
	EmitTime     time.Duration
	ManifestTime time.Duration
	PackTime     time.Duration
	SyncTime     time.Duration
}

// Warnings returns the recovered producer problems.
func (r *Result) Warnings() []error {
	if r.Producer == nil {
		return nil
	}
	return r.Producer.Warnings
}

// Failures returns every problem of the run: the producer error, producer
// warnings and failed sync outcomes.
func (r *Result) Failures() []error {
	var errs []error
	if r.ProducerErr != nil {
		errs = append(errs, r.ProducerErr)
	}
	errs = append(errs, r.Warnings()...)
	if r.Sync != nil {
		for _, o := range r.Sync.Failures() {
			errs = append(errs, o.Err)
		}
	}
	return errs
}

// OK reports whether the run finished without any failure.
func (r *Result) OK() bool { return len(r.Failures()) == 0 }
