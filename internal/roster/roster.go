// Package roster loads the authorized identities and their reference
// encodings from a directory of reference images.
package roster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kozaktomas/facegate/internal/oracle"
)

// ErrEmptyRoster is returned when no reference image produced an encoding.
var ErrEmptyRoster = errors.New("no authorized faces found")

// Identity is an authorized person and the encoding of their reference image.
type Identity struct {
	Name     string
	Encoding []float32
	Source   string // reference image path
}

// Label is the human readable reason used in alerts.
func (i *Identity) Label() string {
	return "Authorized: " + i.Name
}

// Encoder computes face encodings for an image.
type Encoder interface {
	DetectFaces(ctx context.Context, imageData []byte) ([]oracle.Detection, error)
}

// Loader builds the roster from a directory.
type Loader struct {
	Encoder Encoder

	// OnFile is called after each reference image is processed. err is nil
	// when the image produced an identity.
	OnFile func(path string, err error)
}

// ErrNoFace is reported through OnFile when a reference image has no usable face.
var ErrNoFace = errors.New("no face found in reference image")

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// ReferenceImages lists the reference images in dir in lexical order.
func ReferenceImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading roster dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// Load encodes every reference image in dir. Images without a face are
// skipped; the first encoding of an image wins. Returns ErrEmptyRoster if
// nothing could be loaded.
func (l *Loader) Load(ctx context.Context, dir string) ([]Identity, error) {
	manifest, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}

	files, err := ReferenceImages(dir)
	if err != nil {
		return nil, err
	}

	identities := make([]Identity, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := NameFromFile(path)
		if entry, ok := manifest.Lookup(path); ok {
			if entry.Skip {
				continue
			}
			if entry.Name != "" {
				name = entry.Name
			}
		}

		identity, err := l.encode(ctx, path, name)
		l.report(path, err)
		if err != nil {
			continue
		}
		identities = append(identities, *identity)
	}

	if len(identities) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmptyRoster, dir)
	}
	return identities, nil
}

func (l *Loader) encode(ctx context.Context, path, name string) (*Identity, error) {
	data, err := os.ReadFile(path) //nolint:gosec // roster dir is from trusted config
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	detections, err := l.Encoder.DetectFaces(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", path, err)
	}
	if len(detections) == 0 {
		return nil, ErrNoFace
	}

	return &Identity{
		Name:     name,
		Encoding: detections[0].Encoding,
		Source:   path,
	}, nil
}

func (l *Loader) report(path string, err error) {
	if l.OnFile != nil {
		l.OnFile(path, err)
	}
}
