package ports

import "go.trai.ch/smelt/internal/core/domain"

// Hasher defines the interface for computing content fingerprints.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// HashBytes computes the fingerprint of raw content. Deterministic.
	HashBytes(data []byte) string

	// HashFile computes the fingerprint of a file's content, consulting the
	// run-scoped and process-wide memoization layers before reading.
	// Returns domain.ErrNotFound if the file does not exist.
	HashFile(path string) (string, error)

	// HashArtifact computes the fingerprint of an artifact based on how it
	// is backed, memoized on the artifact itself.
	HashArtifact(a *domain.Artifact) (string, error)
}
