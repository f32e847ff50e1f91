// Package installer shells out to npm to install packages into a shared
// cache directory and reports what is installed there.
package installer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/suchetaslalom-sf/mcp-key-server/internal/safego"
)

// ErrInstallFailed is returned when the npm subprocess exits non-zero. The
// wrapped message carries the subprocess's stderr.
var ErrInstallFailed = errors.New("package install failed")

// Installer runs npm install commands against a configured registry, using
// the cache directory as the working directory.
type Installer struct {
	registryURL string
	cacheDir    string
	timeout     time.Duration

	// Serializes installs: concurrent npm runs in the same directory race
	// on package.json and the lockfile.
	mu sync.Mutex
}

// New creates an Installer. timeout bounds each subprocess invocation.
func New(registryURL, cacheDir string, timeout time.Duration) *Installer {
	return &Installer{
		registryURL: registryURL,
		cacheDir:    cacheDir,
		timeout:     timeout,
	}
}

// packageSpec builds the npm package identifier: "name" or "name@version".
func packageSpec(name, version string) string {
	if version != "" {
		return name + "@" + version
	}
	return name
}

// Install runs `npm install <spec> --registry <url>` in the cache directory,
// creating the directory if it does not exist. Returns ErrInstallFailed with
// the captured stderr when the subprocess exits non-zero.
func (i *Installer) Install(ctx context.Context, name, version string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := os.MkdirAll(i.cacheDir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	spec := packageSpec(name, version)

	cmd := exec.CommandContext(ctx, "npm", "install", spec, "--registry", i.registryURL)
	cmd.Dir = i.cacheDir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", ErrInstallFailed, stderr.String())
	}

	return nil
}

// Dispatch runs the install as a fire-and-forget background task. The caller
// gets no completion handle; failures are logged and otherwise unobservable.
func (i *Installer) Dispatch(name, version string) {
	safego.Go(func() {
		if err := i.Install(context.Background(), name, version); err != nil {
			slog.Error("background package install failed",
				"package", packageSpec(name, version), "error", err)
			return
		}
		slog.Info("background package install completed",
			"package", packageSpec(name, version))
	})
}
