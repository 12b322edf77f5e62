package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Bundle is a trained two-stage model as serialized by the training pipeline.
// It is read-only once loaded.
type Bundle struct {
	BaseFeatures []string
	LagFeatures  []string
	Targets      []string
	Imputer      Imputer
	Seed         Regressor
	Main         Regressor
}

type bundleFile struct {
	BaseFeatures []string      `json:"base_features"`
	LagFeatures  []string      `json:"lag_features"`
	Targets      []string      `json:"targets"`
	Imputer      Imputer       `json:"imputer"`
	Seed         regressorFile `json:"seed_model"`
	Main         regressorFile `json:"main_model"`
}

type regressorFile struct {
	Kind   string       `json:"kind"`
	Linear *LinearModel `json:"linear,omitempty"`
	Forest *ForestModel `json:"forest,omitempty"`
}

func (r regressorFile) regressor() (Regressor, error) {
	switch r.Kind {
	case KindLinear:
		if r.Linear == nil {
			return nil, fmt.Errorf("kind %q without linear section", r.Kind)
		}
		if err := r.Linear.validate(); err != nil {
			return nil, err
		}
		return r.Linear, nil
	case KindForest:
		if r.Forest == nil {
			return nil, fmt.Errorf("kind %q without forest section", r.Kind)
		}
		if err := r.Forest.validate(); err != nil {
			return nil, err
		}
		return r.Forest, nil
	default:
		return nil, fmt.Errorf("unsupported model kind %q", r.Kind)
	}
}

// LoadBundle reads a bundle from disk. Files ending in .gz or .zst are
// decompressed transparently.
func LoadBundle(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model bundle %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip model bundle %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open zstd model bundle %s: %w", path, err)
		}
		defer dec.Close()
		r = dec
	}

	b, err := DecodeBundle(r)
	if err != nil {
		return nil, fmt.Errorf("decode model bundle %s: %w", path, err)
	}
	return b, nil
}

// DecodeBundle parses a JSON bundle and validates each model's own shape.
// Cross-checks between the models and the feature lists happen in NewChain.
func DecodeBundle(r io.Reader) (*Bundle, error) {
	var raw bundleFile
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}

	seed, err := raw.Seed.regressor()
	if err != nil {
		return nil, fmt.Errorf("seed_model: %w", err)
	}
	main, err := raw.Main.regressor()
	if err != nil {
		return nil, fmt.Errorf("main_model: %w", err)
	}

	return &Bundle{
		BaseFeatures: raw.BaseFeatures,
		LagFeatures:  raw.LagFeatures,
		Targets:      raw.Targets,
		Imputer:      raw.Imputer,
		Seed:         seed,
		Main:         main,
	}, nil
}
