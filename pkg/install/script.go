package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"diem/internal/executor"
	"diem/pkg/registry"
)

// scriptEnv is the entire environment an install script sees.
func scriptEnv(targetDir, tmpDir string) []string {
	return []string{
		"PATH=/usr/local/bin:/usr/bin:/bin",
		"HOME=" + targetDir,
		"TEMP=" + tmpDir,
	}
}

// runScript materializes the manifest's install script to a restricted
// temp file and runs it with a cleared environment, the package directory
// as both working directory and HOME. The script file is removed whether
// or not the run succeeds.
func (i *Installer) runScript(ctx context.Context, pkg *registry.Package, targetDir, tmpDir string) error {
	scriptPath := filepath.Join(tmpDir, "install.sh")
	if err := os.WriteFile(scriptPath, []byte(pkg.InstallScript), 0700); err != nil {
		return fmt.Errorf("failed to write install script: %w", err)
	}
	defer os.Remove(scriptPath)

	log.Debug("running install script", "package", pkg.Key())
	stderr, err := i.exec.RunSandboxed(ctx, targetDir, scriptEnv(targetDir, tmpDir), "bash", scriptPath)
	if err != nil {
		return &ScriptError{
			Package:  pkg.Name,
			ExitCode: executor.ExitCode(err),
			Stderr:   strings.TrimSpace(stderr),
		}
	}
	return nil
}
