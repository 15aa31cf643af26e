package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
)

var (
	// compileMtx guards access to the executable path so that the project is
	// only compiled once.
	compileMtx sync.Mutex

	// executablePath is empty until the first compilation.
	// Use wildproofExecutablePath instead of reading it directly.
	executablePath string
)

// wildproofExecutablePath builds the daemon the first time it is called and
// returns the path of the binary.
func wildproofExecutablePath() (string, error) {
	compileMtx.Lock()
	defer compileMtx.Unlock()

	if len(executablePath) != 0 {
		return executablePath, nil
	}

	binDir := filepath.Join(os.TempDir(), "wildproof-integration")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return "", err
	}
	outputPath := filepath.Join(binDir, "wildproof")
	if runtime.GOOS == "windows" {
		outputPath += ".exe"
	}

	cmd := exec.Command("go", "build", "-o", outputPath, "github.com/wildproof/wildproof")
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("failed to build wildproof: %v\n%s", err, out)
	}

	executablePath = outputPath
	return executablePath, nil
}
