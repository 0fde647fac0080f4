// Package runstore persists pipeline run history in SQLite.
//
// Each transcode run gets one row tracking the source file, the remote
// resource ids it created, and its terminal status, so the CLI can list past
// runs and their streaming paths. The database is a local convenience record;
// the remote service remains the source of truth for the resources
// themselves. Schema changes bump the version in schema.go; users delete the
// database to adopt a new schema.
package runstore
