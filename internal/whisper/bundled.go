package whisper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fmueller/voxworker/internal/platform"
)

// EnginePathEnv overrides where the whisper-cli binary is looked up.
const EnginePathEnv = "VOXWORKER_WHISPER_PATH"

type BundledEngine struct {
	Executable string
	Logger     *zap.Logger
}

func NewBundledEngine(logger *zap.Logger) (*BundledEngine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if override := strings.TrimSpace(os.Getenv(EnginePathEnv)); override != "" {
		if err := ensureExecutable(override); err != nil {
			return nil, fmt.Errorf("%s is not executable: %w", EnginePathEnv, err)
		}
		return &BundledEngine{Executable: override, Logger: logger}, nil
	}

	workerExe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve worker executable path: %w", err)
	}

	whisperExe, err := ResolveBundledEnginePath(workerExe)
	if err != nil {
		// Container images usually install whisper-cli on PATH.
		onPath, lookErr := exec.LookPath(engineBinaryName())
		if lookErr != nil {
			return nil, err
		}
		whisperExe = onPath
	}

	logger.Debug("whisper engine resolved", zap.String("engine", whisperExe))
	return &BundledEngine{Executable: whisperExe, Logger: logger}, nil
}

// ResolveBundledEnginePath looks for whisper-cli next to the worker binary,
// the way release archives and container images lay it out.
func ResolveBundledEnginePath(workerExecutable string) (string, error) {
	for _, candidate := range EnginePathCandidates(workerExecutable) {
		if err := ensureExecutable(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("bundled whisper engine not found near %s; expected at ../libexec/whisper/%s, on PATH, or set %s", workerExecutable, engineBinaryName(), EnginePathEnv)
}

func EnginePathCandidates(workerExecutable string) []string {
	binDir := filepath.Dir(workerExecutable)
	engineName := engineBinaryName()
	host := platform.CurrentRuntime()
	hostTarget := fmt.Sprintf("%s_%s", host.OS, host.Arch)

	return []string{
		filepath.Join(binDir, "..", "libexec", "whisper", engineName),
		filepath.Join(binDir, "libexec", "whisper", engineName),
		filepath.Join(binDir, "packaging", "whisper", hostTarget, engineName),
		filepath.Join(binDir, engineName),
	}
}

func (b *BundledEngine) Transcribe(ctx context.Context, req TranscriptionRequest) (string, error) {
	if strings.TrimSpace(req.AudioPath) == "" {
		return "", errors.New("audio path is required")
	}
	if strings.TrimSpace(req.ModelPath) == "" {
		return "", errors.New("model path is required")
	}

	if err := ensureExecutable(b.Executable); err != nil {
		return "", fmt.Errorf("bundled whisper engine missing or not executable: %w", err)
	}

	outBase := strings.TrimSuffix(req.AudioPath, filepath.Ext(req.AudioPath)) + fmt.Sprintf(".out-%d", time.Now().UnixNano())
	txtOut := outBase + ".txt"

	args := []string{"-m", req.ModelPath, "-f", req.AudioPath, "-nt", "-otxt", "-of", outBase}
	lang := strings.TrimSpace(req.Language)
	if lang != "" && lang != "auto" {
		args = append(args, "-l", lang)
	}

	cmd := exec.CommandContext(ctx, b.Executable, args...)
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	defer os.Remove(txtOut)

	log := b.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log.Debug("running whisper engine", zap.String("engine", b.Executable), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		errText := strings.TrimSpace(stderr.String())
		if isMissingSharedLibraryError(errText) {
			return "", fmt.Errorf("bundled whisper engine at %s is missing required shared libraries (%s); rebuild whisper-cli with BUILD_SHARED_LIBS=OFF", b.Executable, errText)
		}
		if isIllegalInstructionError(errText) || isIllegalInstructionError(err.Error()) {
			return "", fmt.Errorf("bundled whisper engine crashed with an illegal CPU instruction; " +
				"your CPU may lack required instruction set extensions; " +
				"set " + EnginePathEnv + " to a whisper-cli binary built for your CPU")
		}
		return "", fmt.Errorf("whisper transcribe failed: %w (%s)", err, errText)
	}

	content, err := os.ReadFile(txtOut)
	if err != nil {
		return "", fmt.Errorf("read whisper output: %w", err)
	}

	return strings.TrimSpace(string(content)), nil
}

func engineBinaryName() string {
	if runtime.GOOS == "windows" {
		return "whisper-cli.exe"
	}
	return "whisper-cli"
}

func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if runtime.GOOS != "windows" && info.Mode()&0o111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}

func isMissingSharedLibraryError(stderr string) bool {
	value := strings.ToLower(strings.TrimSpace(stderr))
	if value == "" {
		return false
	}

	patterns := []string{
		"error while loading shared libraries",
		"cannot open shared object file",
		"dyld: library not loaded",
		"image not found",
	}

	for _, pattern := range patterns {
		if strings.Contains(value, pattern) {
			return true
		}
	}

	return false
}

func isIllegalInstructionError(stderr string) bool {
	return strings.Contains(strings.ToLower(stderr), "illegal instruction")
}

