package inference

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/Blosc/btune-go/btune/params"
)

// metadataFileName is the fixed name of the metadata file a models_dir
// must contain alongside the classifier artifact model-tuner loads.
const metadataFileName = "metadata.yaml"

type categoryEntry struct {
	Codec     string `yaml:"codec"`
	Filter    string `yaml:"filter"`
	SplitMode string `yaml:"split_mode"`
	Clevel    int    `yaml:"clevel"`
}

type metadataFile struct {
	Features   []string        `yaml:"features"`
	Categories []categoryEntry `yaml:"categories"`
}

// loadMetadata reads and validates the metadata file declaring the
// classifier's output categories and expected feature layout. A missing or
// empty category list is not an error: the tuner logs "Empty metadata" and
// the caller falls back to pure search.
func loadMetadata(dir string) ([]Category, error) {
	path := filepath.Join(dir, metadataFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelMissing, err)
	}

	var raw metadataFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoadError, err)
	}

	if len(raw.Categories) == 0 {
		logrus.Info("btune: Empty metadata")
		return nil, nil
	}

	categories := make([]Category, 0, len(raw.Categories))
	for _, c := range raw.Categories {
		codec, ok := parseCodec(c.Codec)
		if !ok {
			logrus.Warnf("btune: metadata names unknown codec %q, skipping category", c.Codec)
			continue
		}
		filter, ok := parseFilter(c.Filter)
		if !ok {
			logrus.Warnf("btune: metadata names unknown filter %q, skipping category", c.Filter)
			continue
		}
		split, ok := parseSplitMode(c.SplitMode)
		if !ok {
			logrus.Warnf("btune: metadata names unknown split mode %q, skipping category", c.SplitMode)
			continue
		}
		categories = append(categories, Category{
			Codec:     codec,
			Filter:    filter,
			SplitMode: split,
			Clevel:    params.ClampClevel(c.Clevel),
		})
	}
	return categories, nil
}

func parseCodec(s string) (params.Codec, bool) {
	switch s {
	case "blosclz":
		return params.CodecBloscLZ, true
	case "lz4":
		return params.CodecLZ4, true
	case "lz4hc":
		return params.CodecLZ4HC, true
	case "zlib":
		return params.CodecZlib, true
	case "zstd":
		return params.CodecZstd, true
	default:
		return 0, false
	}
}

func parseFilter(s string) (params.Filter, bool) {
	switch s {
	case "nofilter":
		return params.FilterNoFilter, true
	case "shuffle":
		return params.FilterShuffle, true
	case "bitshuffle":
		return params.FilterBitShuffle, true
	case "bytedelta":
		return params.FilterByteDelta, true
	default:
		return 0, false
	}
}

func parseSplitMode(s string) (params.SplitMode, bool) {
	switch s {
	case "auto":
		return params.SplitAuto, true
	case "always":
		return params.SplitAlways, true
	case "never":
		return params.SplitNever, true
	default:
		return 0, false
	}
}
