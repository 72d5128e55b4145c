package whisper

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "base"

const modelBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

type Model struct {
	Name      string
	FileName  string
	URL       string
	SHA256    string
	SHA256URL string
	// SizeMiB is the approximate download size, for log output only.
	SizeMiB int
}

type ResolvedModel struct {
	Model
	Path          string
	NeedsDownload bool
	IsCustomPath  bool
}

var catalog = []Model{
	ggml("tiny", "be07e048e1e599ad46341c8d2a135645097a538221678b7acdd1b1919c6e1b21", 75),
	ggml("base", "60ed5bc3dd14eea856493d334349b405782ddcaf0028d4b5df4088345fba2efe", 142),
	ggml("small", "1be3a9b2063867b937e64e2ec7483364a79917e157fa98c5d94b5c1fffea987b", 466),
	ggml("medium", "6c14d5adee5f86394037b4e4e8b59f1673b6cee10e3cf0b11bbdbee79c156208", 1500),
	ggml("large-v3", "64d182b440b98d5203c4f9bd541544d84c605196c4f7b845dfa11fb23594d1e2", 2950),
}

var aliases = map[string]string{
	"large": "large-v3",
}

func ggml(name, sha256 string, sizeMiB int) Model {
	fileName := "ggml-" + name + ".bin"
	return Model{
		Name:     name,
		FileName: fileName,
		URL:      modelBaseURL + fileName,
		SHA256:   sha256,
		SizeMiB:  sizeMiB,
	}
}

func ModelNames() []string {
	names := make([]string, 0, len(catalog))
	for _, m := range catalog {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

// LookupModel finds a catalog entry by name or alias, ignoring case.
func LookupModel(name string) (Model, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if target, ok := aliases[name]; ok {
		name = target
	}
	for _, m := range catalog {
		if m.Name == name {
			return m, true
		}
	}
	return Model{}, false
}

// ResolveModel maps a model name or file path to a location on disk. Named
// models live in modelDir and are flagged for download when missing.
func ResolveModel(modelRef, modelDir string) (ResolvedModel, error) {
	if strings.TrimSpace(modelRef) == "" {
		modelRef = DefaultModel
	}

	if model, ok := LookupModel(modelRef); ok {
		return resolveNamed(model, modelDir)
	}

	if !looksLikePath(modelRef) {
		return ResolvedModel{}, fmt.Errorf("unknown model %q (known models: %s)", modelRef, strings.Join(ModelNames(), ", "))
	}

	customPath := filepath.Clean(modelRef)
	info, err := os.Stat(customPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return ResolvedModel{}, fmt.Errorf("custom model path does not exist: %s", customPath)
	case err != nil:
		return ResolvedModel{}, fmt.Errorf("stat custom model path: %w", err)
	case info.IsDir():
		return ResolvedModel{}, fmt.Errorf("custom model path is a directory: %s", customPath)
	}

	return ResolvedModel{
		Model:        Model{Name: filepath.Base(customPath), FileName: filepath.Base(customPath)},
		Path:         customPath,
		IsCustomPath: true,
	}, nil
}

func resolveNamed(model Model, modelDir string) (ResolvedModel, error) {
	if strings.TrimSpace(modelDir) == "" {
		return ResolvedModel{}, errors.New("model directory must not be empty for named model")
	}

	modelPath := filepath.Join(modelDir, model.FileName)
	resolved := ResolvedModel{Model: model, Path: modelPath}

	_, err := os.Stat(modelPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		resolved.NeedsDownload = true
	case err != nil:
		return ResolvedModel{}, fmt.Errorf("stat model path: %w", err)
	}
	return resolved, nil
}

func looksLikePath(input string) bool {
	return strings.ContainsRune(input, os.PathSeparator) || strings.HasSuffix(strings.ToLower(input), ".bin")
}
