package cli

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"time"
)

// watchInterval is how often the manifest is checked for changes.
var watchInterval = 500 * time.Millisecond

// RunWatch runs the manifest, then runs it again every time the file changes,
// until ctx is done. Build and run errors are reported and do not stop the
// watcher.
func RunWatch(ctx context.Context, opts RunOptions, out io.Writer) error {
	printSystemMessage(out, "Watching '%s'.", opts.File)

	last, err := fileHash(opts.File)
	if err != nil {
		return err
	}

	for {
		if err := runOnce(ctx, opts, out); err != nil && !isInterrupted(err) {
			printSystemMessage(out, "Run failed: %v", err)
		}

		next, err := waitForChange(ctx, opts.File, last)
		if err != nil {
			return handleExecutionError(err)
		}
		last = next
		printSystemMessage(out, "Change detected, reloading.")
	}
}

// waitForChange polls path until its hash differs from last.
func waitForChange(ctx context.Context, path string, last [md5.Size]byte) ([md5.Size]byte, error) {
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
			h, err := fileHash(path)
			if err != nil {
				// Editors often replace files; a missing file is transient.
				continue
			}
			if h != last {
				return h, nil
			}
		}
	}
}

func fileHash(path string) ([md5.Size]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return [md5.Size]byte{}, fmt.Errorf("read manifest: %w", err)
	}
	return md5.Sum(data), nil
}
