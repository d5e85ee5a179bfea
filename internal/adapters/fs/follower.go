// Package fs follows growing log files on the local file system.
package fs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/chronicler/pkg/log"
)

// Follower emits complete lines of a file as they are written, like
// tail -F. Partial lines are held back until their newline arrives. A
// file that is replaced (rotated) is reopened from the start, and one
// truncated in place (copytruncate) is reread from offset zero.
type Follower struct {
	path   string
	logger log.Logger

	file    *os.File
	reader  *bufio.Reader
	offset  int64
	partial strings.Builder
}

// NewFollower creates a follower for path.
func NewFollower(path string, logger log.Logger) *Follower {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Follower{path: filepath.Clean(path), logger: logger}
}

// Run emits lines until ctx is cancelled. With fromEnd set, content that
// exists before Run starts is skipped.
func (f *Follower) Run(ctx context.Context, fromEnd bool, emit func(line string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so rotation (remove + create) is seen.
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(f.path), err)
	}

	if err := f.open(fromEnd); err != nil {
		return err
	}
	defer f.close()

	if err := f.readAvailable(emit); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			switch {
			case event.Op&fsnotify.Create != 0:
				f.close()
				if err := f.open(false); err != nil {
					f.logger.Warn("reopen followed file failed", log.String("path", f.path), log.Err(err))
					continue
				}
				f.logger.Debug("followed file recreated", log.String("path", f.path))
				if err := f.readAvailable(emit); err != nil {
					return err
				}
			case event.Op&fsnotify.Write != 0:
				if err := f.readAvailable(emit); err != nil {
					return err
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("file watcher error", log.Err(err))
		}
	}
}

func (f *Follower) open(fromEnd bool) error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.path, err)
	}
	var offset int64
	if fromEnd {
		offset, err = file.Seek(0, io.SeekEnd)
		if err != nil {
			file.Close()
			return fmt.Errorf("seek %s: %w", f.path, err)
		}
	}
	f.file = file
	f.offset = offset
	f.reader = bufio.NewReader(file)
	f.partial.Reset()
	return nil
}

func (f *Follower) close() {
	if f.file != nil {
		f.file.Close()
		f.file = nil
		f.reader = nil
	}
}

func (f *Follower) readAvailable(emit func(string)) error {
	if f.reader == nil {
		return nil
	}
	if err := f.rewindIfTruncated(); err != nil {
		return err
	}
	for {
		chunk, err := f.reader.ReadString('\n')
		f.offset += int64(len(chunk))
		f.partial.WriteString(chunk)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", f.path, err)
		}
		line := strings.TrimRight(f.partial.String(), "\r\n")
		f.partial.Reset()
		emit(line)
	}
}

// rewindIfTruncated restarts from the beginning when the file is now
// shorter than what has already been read.
func (f *Follower) rewindIfTruncated() error {
	info, err := f.file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", f.path, err)
	}
	if info.Size() >= f.offset {
		return nil
	}
	if _, err := f.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek %s: %w", f.path, err)
	}
	f.logger.Debug("followed file truncated", log.String("path", f.path), log.Int("size", int(info.Size())))
	f.reader.Reset(f.file)
	f.offset = 0
	f.partial.Reset()
	return nil
}
