package iiif

import (
	"context"

	"github.com/siherrmann/inscriber/model"
)

// ManifestFetcher loads a manifest document.
type ManifestFetcher interface {
	FetchManifest(ctx context.Context, uri string) (*model.Manifest, error)
}

// ManifestSource loads its manifest on first access and keeps it afterwards.
// A failed load leaves the source unloaded so that Load can be retried.
type ManifestSource struct {
	URI      string
	fetcher  ManifestFetcher
	manifest *model.Manifest
}

// NewManifestSource creates an unloaded source for uri.
func NewManifestSource(uri string, fetcher ManifestFetcher) *ManifestSource {
	return &ManifestSource{URI: uri, fetcher: fetcher}
}

// NewLoadedManifestSource wraps an already decoded manifest.
func NewLoadedManifestSource(uri string, manifest *model.Manifest) *ManifestSource {
	return &ManifestSource{URI: uri, manifest: manifest}
}

// Load returns the manifest, fetching it if necessary.
func (s *ManifestSource) Load(ctx context.Context) (*model.Manifest, error) {
	if s.manifest != nil {
		return s.manifest, nil
	}
	manifest, err := s.fetcher.FetchManifest(ctx, s.URI)
	if err != nil {
		return nil, err
	}
	s.manifest = manifest
	return manifest, nil
}

// Loaded reports whether the manifest has been fetched.
func (s *ManifestSource) Loaded() bool {
	return s.manifest != nil
}
