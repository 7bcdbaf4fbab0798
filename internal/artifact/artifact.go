// Package artifact reads and writes the model directory that connects the
// fine-tuning job to the inference service.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"lazycare/internal/common/fsutil"
	"lazycare/pkg/types"
)

// ManifestFile is the manifest name inside an artifact directory.
const ManifestFile = "artifact.json"

// ErrNoWeights is returned when a directory holds neither a manifest nor a GGUF file.
var ErrNoWeights = errors.New("no model weights found")

// Manifest describes a model artifact.
type Manifest struct {
	BaseModel    string            `json:"base_model,omitempty"`
	BaseModelSHA string            `json:"base_model_sha,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	Weights      string            `json:"weights,omitempty"`
	Template     string            `json:"template,omitempty"`
	Tokenizer    []string          `json:"tokenizer,omitempty"`
	Training     map[string]string `json:"training,omitempty"`
	Examples     int               `json:"examples,omitempty"`
}

// Artifact is a loaded model directory.
type Artifact struct {
	Dir      string
	Manifest Manifest
}

// WeightsPath returns the absolute path of the weights file, or "" when the
// artifact does not name one.
func (a Artifact) WeightsPath() string {
	if a.Manifest.Weights == "" {
		return ""
	}
	if filepath.IsAbs(a.Manifest.Weights) {
		return a.Manifest.Weights
	}
	return filepath.Join(a.Dir, a.Manifest.Weights)
}

// Info projects the artifact for status reporting.
func (a Artifact) Info() types.ModelInfo {
	return types.ModelInfo{Dir: a.Dir, BaseModel: a.Manifest.BaseModel, Weights: a.Manifest.Weights}
}

// Load reads the artifact in dir. With a manifest present it is authoritative;
// otherwise the first *.gguf file (by name) is used as weights.
func Load(dir string) (Artifact, error) {
	abs, err := fsutil.ResolveDir(dir)
	if err != nil {
		return Artifact{}, err
	}
	if !fsutil.IsDir(abs) {
		return Artifact{}, fmt.Errorf("model dir %s: %w", abs, os.ErrNotExist)
	}
	a := Artifact{Dir: abs}
	b, err := os.ReadFile(filepath.Join(abs, ManifestFile))
	switch {
	case err == nil:
		if err := json.Unmarshal(b, &a.Manifest); err != nil {
			return Artifact{}, fmt.Errorf("parse %s: %w", ManifestFile, err)
		}
		if a.Manifest.Weights != "" && !fsutil.FileExists(a.WeightsPath()) {
			return Artifact{}, fmt.Errorf("weights %s listed in manifest: %w", a.Manifest.Weights, os.ErrNotExist)
		}
		if a.Manifest.Weights == "" {
			if w, ok := scanGGUF(abs); ok {
				a.Manifest.Weights = w
			}
		}
		return a, nil
	case errors.Is(err, os.ErrNotExist):
		w, ok := scanGGUF(abs)
		if !ok {
			return Artifact{}, fmt.Errorf("model dir %s: %w", abs, ErrNoWeights)
		}
		a.Manifest.Weights = w
		return a, nil
	default:
		return Artifact{}, fmt.Errorf("read manifest: %w", err)
	}
}

// Write stores m as the manifest of dir, creating dir if needed.
func Write(dir string, m Manifest) (Artifact, error) {
	abs, err := fsutil.ResolveDir(dir)
	if err != nil {
		return Artifact{}, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return Artifact{}, fmt.Errorf("create model dir: %w", err)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.Weights == "" {
		if w, ok := scanGGUF(abs); ok {
			m.Weights = w
		}
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Artifact{}, err
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(abs, ManifestFile), append(b, '\n'), 0o644); err != nil {
		return Artifact{}, fmt.Errorf("write manifest: %w", err)
	}
	return Artifact{Dir: abs, Manifest: m}, nil
}

// tokenizerFiles are the files a saved tokenizer is made of.
var tokenizerFiles = []string{"tokenizer.json", "tokenizer.model", "tokenizer_config.json", "special_tokens_map.json"}

// TokenizerFiles lists the tokenizer files present in dir.
func TokenizerFiles(dir string) []string {
	var out []string
	for _, f := range tokenizerFiles {
		if fsutil.FileExists(filepath.Join(dir, f)) {
			out = append(out, f)
		}
	}
	return out
}

func scanGGUF(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".gguf") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return names[0], true
}
