// Package errors provides sentinel errors for source discovery.
package errors

import "errors"

var (
	// ErrSourceDirNotFound indicates the configured source directory does not exist.
	ErrSourceDirNotFound = errors.New("source directory not found")

	// ErrSourceDirWalkFailed indicates filesystem traversal of the source directory failed.
	ErrSourceDirWalkFailed = errors.New("source directory walk failed")

	// ErrNoDocsFound indicates no source documents were discovered.
	ErrNoDocsFound = errors.New("no source documents found")

	// ErrPathCollision indicates multiple source files map to the same output page.
	ErrPathCollision = errors.New("output path collision detected")
)
