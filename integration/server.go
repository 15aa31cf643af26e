package integration

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// ServerConfig contains the arguments used to launch a daemon instance.
type ServerConfig struct {
	RESTListen string
	Admin      string
	Verifier   string
	TimeUnit   string
	// Balances are passed as --balance principal:amount.
	Balances map[string]uint64

	baseDir string
	exe     string
}

// DefaultConfig returns a config for a daemon in baseDir listening on a free port.
func DefaultConfig(baseDir string) (*ServerConfig, error) {
	exe, err := wildproofExecutablePath()
	if err != nil {
		return nil, err
	}
	addr, err := freeAddr()
	if err != nil {
		return nil, err
	}

	return &ServerConfig{
		RESTListen: addr,
		Admin:      "admin",
		TimeUnit:   "1m",
		baseDir:    baseDir,
		exe:        exe,
	}, nil
}

func (cfg *ServerConfig) genArgs() []string {
	args := []string{
		fmt.Sprintf("--dir=%v", cfg.baseDir),
		fmt.Sprintf("--restlisten=%v", cfg.RESTListen),
		fmt.Sprintf("--admin=%v", cfg.Admin),
		fmt.Sprintf("--time-unit=%v", cfg.TimeUnit),
		"--debuglog",
	}
	if cfg.Verifier != "" {
		args = append(args, fmt.Sprintf("--verifier=%v", cfg.Verifier))
	}
	for principal, amount := range cfg.Balances {
		args = append(args, fmt.Sprintf("--balance=%s:%d", principal, amount))
	}
	return args
}

// lockedBuffer is written by the process output copier and read by tests.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// server manages a daemon process.
type server struct {
	cfg *ServerConfig
	cmd *exec.Cmd

	stdout lockedBuffer
	stderr lockedBuffer

	// processExit is closed once the process exited.
	processExit chan struct{}
	wg          sync.WaitGroup

	errChan chan error
}

func newServer(cfg *ServerConfig) *server {
	return &server{
		cfg:     cfg,
		errChan: make(chan error, 1),
	}
}

func (s *server) start() error {
	s.cmd = exec.Command(s.cfg.exe, s.cfg.genArgs()...)
	s.cmd.Stdout = &s.stdout
	s.cmd.Stderr = &s.stderr

	if err := s.cmd.Start(); err != nil {
		return err
	}

	s.processExit = make(chan struct{})
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		err := s.cmd.Wait()
		// 'signal: killed' is how stop ends the process.
		if err != nil && !strings.Contains(err.Error(), "signal: killed") {
			s.errChan <- fmt.Errorf("%v\n%v", err, s.stderr.String())
		}
		close(s.processExit)
	}()

	return nil
}

// shutdown kills the process and removes the files it created.
func (s *server) shutdown() error {
	if err := s.stop(); err != nil {
		return err
	}
	return os.RemoveAll(s.cfg.baseDir)
}

func (s *server) stop() error {
	if s.processExit == nil {
		return nil
	}

	select {
	case <-s.processExit:
	default:
		if err := s.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("failed to kill process: %v", err)
		}
	}
	s.wg.Wait()
	s.processExit = nil
	return nil
}
