// Package services defines the error taxonomy shared by every vodflow
// component.
//
// Components tag failures with one of the exported sentinel errors so the
// pipeline and CLI can classify them with errors.Is without parsing messages.
// Wrap builds the canonical "component: operation: detail" chain used across
// the codebase.
package services
