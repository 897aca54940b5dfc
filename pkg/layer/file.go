package layer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dd0wney/cluso-geonet/pkg/geometry"
	"github.com/dd0wney/cluso-geonet/pkg/gerrors"
	"github.com/golang/snappy"
)

// File writes the layer as a GeoJSON FeatureCollection on Close, optionally
// snappy-compressed.
type File struct {
	collector
	Path     string
	Compress bool
}

// NewFile creates a file sink for path.
func NewFile(path string, compress bool) *File {
	return &File{Path: path, Compress: compress}
}

func (f *File) Create(_ context.Context, name string, schema []geometry.Field) error {
	if _, err := os.Stat(f.Path); err == nil {
		return gerrors.New("Create").Layer(name).Validation("target %s already exists", f.Path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", f.Path, err)
	}
	return f.create("Create", name, schema)
}

func (f *File) Append(_ context.Context, e Edge) error {
	return f.append("Append", e)
}

// Close writes the collected layer. The file is created exclusively so a
// concurrent writer of the same target makes Close fail instead of clobbering.
func (f *File) Close(context.Context) error {
	if f.ds == nil {
		return nil
	}
	data, err := encode(f.ds, f.Compress)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	out, err := os.OpenFile(f.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", f.Path, err)
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", f.Path, err)
	}
	return out.Close()
}

// ReadFile loads a layer written by File (or any GeoJSON file). Files ending
// in ".sz" are snappy-decoded first.
func ReadFile(path string) (*geometry.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if strings.HasSuffix(path, ".sz") {
		data, err = snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
		}
	}
	name := strings.TrimSuffix(filepath.Base(path), ".sz")
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return geometry.DecodeGeoJSON(name, data)
}

func encode(ds *geometry.Dataset, compress bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := ds.EncodeGeoJSON(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode layer %s: %w", ds.Name, err)
	}
	if compress {
		return snappy.Encode(nil, buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}
