// SPDX-License-Identifier: MPL-2.0

package envfile

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"devshell-cli/pkg/cueutil"
	"devshell-cli/pkg/types"

	"github.com/pelletier/go-toml/v2"
)

//go:embed envfile_schema.cue
var envfileSchema string

const (
	// DefaultFileName is the canonical envfile name looked up in a directory.
	DefaultFileName = "devshell.cue"
	// DefaultTOMLFileName is the TOML-format fallback looked up after
	// DefaultFileName.
	DefaultTOMLFileName = "devshell.toml"
)

// Parse reads and parses an envfile from the given path. The format is
// selected by extension: .toml is decoded with go-toml, everything else
// is treated as CUE.
func Parse(path types.FilesystemPath) (*Envfile, error) {
	pathStr := string(path)
	data, err := os.ReadFile(pathStr)
	if err != nil {
		return nil, fmt.Errorf("failed to read envfile at %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(pathStr), ".toml") {
		return ParseTOMLBytes(data, pathStr)
	}
	return ParseBytes(data, pathStr)
}

// ParseBytes parses CUE envfile content from bytes.
// Uses cueutil.ParseAndDecodeString for the 3-step CUE parsing flow:
// compile schema → compile user data → validate and decode.
func ParseBytes(data []byte, path string) (*Envfile, error) {
	result, err := cueutil.ParseAndDecodeString[Envfile](
		envfileSchema,
		data,
		"#Envfile",
		cueutil.WithFilename(path),
	)
	if err != nil {
		return nil, err
	}

	f := result.Value
	f.FilePath = types.FilesystemPath(path)

	if errs := f.Validate(); len(errs) > 0 {
		return nil, errs
	}

	return f, nil
}

// ParseTOMLBytes parses TOML envfile content from bytes. The TOML shape
// mirrors the CUE schema; the same Go-level validation applies, so both
// formats enforce identical constraints.
func ParseTOMLBytes(data []byte, path string) (*Envfile, error) {
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return nil, err
	}

	var f Envfile
	if err := toml.Unmarshal(data, &f); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %s", path, row, col, decodeErr.Error())
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.FilePath = types.FilesystemPath(path)

	if errs := f.Validate(); len(errs) > 0 {
		return nil, errs
	}

	return &f, nil
}
