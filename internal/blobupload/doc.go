// Package blobupload implements the chunked block upload protocol for asset
// storage.
//
// Files are split into fixed 4 MiB blocks, each PUT against the locator's
// upload URL with an encoded block id, then finalized with a block-list
// commit that enumerates every id in file-offset order. Until the commit
// succeeds the object is not live, so any block or commit failure reports
// the whole upload as failed.
package blobupload
