// Package typesync installs the declaration files published by remote
// applications into a local install directory.
//
// # Protocol
//
// Each remote is configured as "<name>@<entry url>". Its base URL is the
// entry URL without the final path segment (see pkg/specifier). With the
// manifest transport, a sync run
//
//  1. fetches <base>/<typesFile> (default @types.json),
//  2. decodes it as a JSON array of root-relative paths,
//  3. fetches <base>/<entry> for every entry and installs it at
//     <installDir>/<entry>.
//
// With the archive transport, <base>/<archiveFile> is downloaded and
// unpacked into installDir instead.
//
// # Failure isolation
//
// Remotes are synced concurrently and files within one remote likewise.
// A failing remote or file never aborts its siblings; every attempt ends
// as an [Outcome] in the returned [Report]. [Syncer.Sync] waits for all
// in-flight work before it returns and never returns an error itself;
// callers decide whether [Report.Err] should fail the build.
//
// # Install state
//
// When a [State] is configured, the manifest each remote delivered is
// recorded after the run. With pruning enabled, files a remote listed
// last time but no longer lists are removed, unless another remote still
// lists them.
package typesync
