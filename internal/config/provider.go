// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"

	"github.com/spf13/afero"
)

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath is the document to read; DefaultConfigFile when empty.
	ConfigFilePath string
	// BaseDir overrides the directory relative paths resolve against.
	// Defaults to the document's own directory.
	BaseDir string
}

// Provider loads configuration from explicit options.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

type fileProvider struct {
	fs afero.Fs
}

// NewProvider creates a configuration provider reading from fsys.
// A nil fsys reads from the OS filesystem.
func NewProvider(fsys afero.Fs) Provider {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &fileProvider{fs: fsys}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	return loadWithOptions(ctx, p.fs, opts)
}
