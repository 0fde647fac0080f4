// Package ident derives human-readable display titles from media file names
// for run history listings and log lines.
package ident
