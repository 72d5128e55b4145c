package whisper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveModelDefaultNamedModel(t *testing.T) {
	t.Parallel()

	modelDir := t.TempDir()
	resolved, err := ResolveModel("", modelDir)
	require.NoError(t, err)
	require.Equal(t, DefaultModel, resolved.Name)
	require.Equal(t, filepath.Join(modelDir, "ggml-base.bin"), resolved.Path)
	require.Equal(t, modelBaseURL+"ggml-base.bin", resolved.URL)
	require.True(t, resolved.NeedsDownload)
	require.False(t, resolved.IsCustomPath)
}

func TestResolveModelExistingNamedModel(t *testing.T) {
	t.Parallel()

	modelDir := t.TempDir()
	modelPath := filepath.Join(modelDir, "ggml-tiny.bin")
	require.NoError(t, os.WriteFile(modelPath, []byte("ok"), 0o644))

	resolved, err := ResolveModel("tiny", modelDir)
	require.NoError(t, err)
	require.Equal(t, "tiny", resolved.Name)
	require.Equal(t, modelPath, resolved.Path)
	require.False(t, resolved.NeedsDownload)
}

func TestResolveModelAliasAndCase(t *testing.T) {
	t.Parallel()

	modelDir := t.TempDir()

	resolved, err := ResolveModel("large", modelDir)
	require.NoError(t, err)
	require.Equal(t, "large-v3", resolved.Name)
	require.Equal(t, filepath.Join(modelDir, "ggml-large-v3.bin"), resolved.Path)

	resolved, err = ResolveModel(" Base ", modelDir)
	require.NoError(t, err)
	require.Equal(t, "base", resolved.Name)
}

func TestResolveModelNamedRequiresDir(t *testing.T) {
	t.Parallel()

	_, err := ResolveModel("tiny", " ")
	require.ErrorContains(t, err, "model directory must not be empty")
}

func TestResolveModelCustomPath(t *testing.T) {
	t.Parallel()

	custom := filepath.Join(t.TempDir(), "custom.bin")
	require.NoError(t, os.WriteFile(custom, []byte("x"), 0o644))

	resolved, err := ResolveModel(custom, t.TempDir())
	require.NoError(t, err)
	require.True(t, resolved.IsCustomPath)
	require.Equal(t, custom, resolved.Path)
	require.Equal(t, "custom.bin", resolved.Name)
	require.Empty(t, resolved.URL)
}

func TestResolveModelCustomPathErrors(t *testing.T) {
	t.Parallel()

	_, err := ResolveModel(filepath.Join(t.TempDir(), "missing.bin"), t.TempDir())
	require.ErrorContains(t, err, "custom model path does not exist")

	dir := filepath.Join(t.TempDir(), "models.bin")
	require.NoError(t, os.Mkdir(dir, 0o755))
	_, err = ResolveModel(dir, t.TempDir())
	require.ErrorContains(t, err, "is a directory")
}

func TestResolveModelUnknownModel(t *testing.T) {
	t.Parallel()

	_, err := ResolveModel("super-huge", t.TempDir())
	require.ErrorContains(t, err, "known models: base, large-v3, medium, small, tiny")
}

func TestCatalogModelsHavePinnedChecksums(t *testing.T) {
	t.Parallel()

	for _, name := range ModelNames() {
		model, ok := LookupModel(name)
		require.True(t, ok)
		require.Lenf(t, model.SHA256, 64, "model %s should have pinned sha256", name)
		require.Positive(t, model.SizeMiB)
	}
}
