// Package pipeline sequences one end-to-end transcode run against the remote
// media service.
//
// The orchestrator chains token acquisition, policy and asset provisioning,
// locator selection, the chunked upload, job submission and polling, and
// output locator resolution. Steps hand an immutable-per-step state value
// down the chain; the first failing step aborts the remainder. Retries, where
// desired, belong inside the individual components, never here.
package pipeline
