// Package pkg provides the libraries behind mftypes, which shares
// TypeScript declarations between module federation applications.
//
// # Overview
//
// A producer application exposes components; mftypes compiles them into
// declaration files, merges those into one index.d.ts of `declare module`
// blocks and publishes a manifest listing every file. A consumer
// application lists remotes; mftypes reads each remote's manifest and
// installs the listed files next to its node_modules. The packages are
// organized by role:
//
//  1. Producer: [compiler], [declaration], [manifest], [archive]
//  2. Consumer: [specifier], [typesync], [httputil]
//  3. Distribution: [server], [publish]
//  4. Infrastructure: [cache], [config], [errors], [fswalk], [observability], [buildinfo]
//  5. Orchestration: [pipeline]
//
// # Architecture
//
// The data flow of a build:
//
//	exposes (name → source path)
//	         ↓
//	    [compiler] (tsc --emitDeclarationOnly per component)
//	         ↓
//	    [declaration] (merge into <root>/@types/<app>/index.d.ts)
//	         ↓
//	    [manifest] (<root>/@types.json), [archive] (optional types.tar)
//	         ↓
//	    [server] / [publish] / any static host
//	         ↓
//	    [typesync] (fetch manifest, install into node_modules/@types/<app>)
//
// # Quick Start
//
//	cfg, _, err := config.Load(config.LoadOptions{})
//	if err != nil {
//	    return err
//	}
//	runner, err := pipeline.NewRunner(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer runner.Close()
//	result, err := runner.Execute(ctx, cfg)
//
// [compiler]: https://pkg.go.dev/github.com/matzehuels/mftypes/pkg/compiler
// [declaration]: https://pkg.go.dev/github.com/matzehuels/mftypes/pkg/declaration
// [manifest]: https://pkg.go.dev/github.com/matzehuels/mftypes/pkg/manifest
// [archive]: https://pkg.go.dev/github.com/matzehuels/mftypes/pkg/archive
// [specifier]: https://pkg.go.dev/github.com/matzehuels/mftypes/pkg/specifier
// [typesync]: https://pkg.go.dev/github.com/matzehuels/mftypes/pkg/typesync
// [httputil]: https://pkg.go.dev/github.com/matzehuels/mftypes/pkg/httputil
// [server]: https://pkg.go.dev/github.com/matzehuels/mftypes/pkg/server
// [publish]: https://pkg.go.dev/github.com/matzehuels/mftypes/pkg/publish
// [cache]: https://pkg.go.dev/github.com/matzehuels/mftypes/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/mftypes/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/mftypes/pkg/errors
// [fswalk]: https://pkg.go.dev/github.com/matzehuels/mftypes/pkg/fswalk
// [observability]: https://pkg.go.dev/github.com/matzehuels/mftypes/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/mftypes/pkg/buildinfo
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/mftypes/pkg/pipeline
package pkg
