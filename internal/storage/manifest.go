package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/IshaanNene/newsetl/internal/types"
)

// ManifestSuffix is appended to a table path to name its sidecar.
const ManifestSuffix = ".manifest.yaml"

// ManifestPath returns the sidecar path for the table at path.
func ManifestPath(path string) string {
	return path + ManifestSuffix
}

// WriteManifest writes m as the sidecar of the table at path.
func WriteManifest(path string, m *types.Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return &types.StorageError{Backend: "manifest", Path: path, Err: err}
	}
	if err := os.WriteFile(ManifestPath(path), data, 0o644); err != nil {
		return &types.StorageError{Backend: "manifest", Path: path, Err: err}
	}
	return nil
}

// ReadManifest reads the sidecar of the table at path. A table without a
// sidecar yields a nil manifest and no error.
func ReadManifest(path string) (*types.Manifest, error) {
	data, err := os.ReadFile(ManifestPath(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &types.StorageError{Backend: "manifest", Path: path, Err: err}
	}

	var m types.Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &types.StorageError{
			Backend: "manifest",
			Path:    path,
			Err:     fmt.Errorf("decode: %w", err),
		}
	}
	return &m, nil
}
