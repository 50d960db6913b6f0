package runner

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"sync"
)

// runCommand runs a command in dir and streams stdout/stderr line-by-line to
// onLine. The renderer's output is opaque pass-through; nothing here parses it.
func runCommand(ctx context.Context, dir string, onLine func(string), name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	// Unbuffered python keeps the captured lines in the order produced.
	cmd.Env = append(os.Environ(),
		"LANG=C.UTF-8",
		"LC_ALL=C.UTF-8",
		"PYTHONUNBUFFERED=1",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(2)

	consume := func(r io.Reader) {
		defer wg.Done()
		s := bufio.NewScanner(r)
		// allow long lines (captions and tracebacks can get big)
		buf := make([]byte, 0, 64*1024)
		s.Buffer(buf, 1024*1024)
		for s.Scan() {
			onLine(s.Text())
		}
	}

	go consume(stdout)
	go consume(stderr)

	wg.Wait()
	return cmd.Wait()
}
