// Package mediaservice implements the REST client for the remote
// media-processing service.
//
// It covers the credential exchange, access policy and asset provisioning,
// the bounded locator cache with eviction, encoding job submission, and the
// bounded job state poll loop. All operations take a context and the bearer
// token by value; the Client holds only its transport dependency and request
// defaults. Failures are tagged with the sentinel errors from
// internal/services so callers can classify them with errors.Is.
package mediaservice
