// Package watcher follows a growing rank log file and emits appended lines.
package watcher

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is the fallback poll interval used when filesystem
// notifications are missed (network filesystems, editors that replace files).
const DefaultPollInterval = 500 * time.Millisecond

// Follower tails a file, emitting each complete appended line. A truncated
// file (offset past end) restarts from the beginning, so a sampler that
// rewrites its rank log is picked up cleanly.
type Follower struct {
	path      string
	fsWatcher *fsnotify.Watcher
	poll      time.Duration

	offset  int64
	partial []byte // trailing bytes of an incomplete line

	lines  chan string
	errors chan error

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a follower for the given file. A poll interval of 0 or below
// uses DefaultPollInterval.
func New(path string, poll time.Duration) (*Follower, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if poll <= 0 {
		poll = DefaultPollInterval
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Follower{
		path:      absPath,
		fsWatcher: fsWatcher,
		poll:      poll,
		lines:     make(chan string, 256),
		errors:    make(chan error, 10),
		done:      make(chan struct{}),
	}, nil
}

// Lines returns the channel of appended lines.
func (f *Follower) Lines() <-chan string {
	return f.lines
}

// Errors returns the channel of errors.
func (f *Follower) Errors() <-chan error {
	return f.errors
}

// Start reads the file's current contents, then begins following appends.
// The file's directory is watched rather than the file itself, so the file
// may not exist yet and may be replaced while followed.
func (f *Follower) Start() error {
	if err := f.fsWatcher.Add(filepath.Dir(f.path)); err != nil {
		return err
	}

	f.wg.Add(1)
	go f.loop()

	return nil
}

// Stop shuts the follower down and closes its channels. Safe to call more
// than once.
func (f *Follower) Stop() error {
	var err error
	f.stopOnce.Do(func() {
		close(f.done)
		f.wg.Wait()
		close(f.lines)
		close(f.errors)
		err = f.fsWatcher.Close()
	})
	return err
}

// loop drains filesystem events and polls as a fallback.
func (f *Follower) loop() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.poll)
	defer ticker.Stop()

	// Existing contents are emitted first.
	f.readNew()

	for {
		select {
		case <-f.done:
			return

		case event, ok := <-f.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Name != f.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			f.readNew()

		case err, ok := <-f.fsWatcher.Errors:
			if !ok {
				return
			}
			f.reportError(err)

		case <-ticker.C:
			f.readNew()
		}
	}
}

// readNew reads everything past the current offset and emits complete lines.
func (f *Follower) readNew() {
	file, err := os.Open(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.reportError(err)
		}
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		f.reportError(err)
		return
	}
	if info.Size() < f.offset {
		// Truncated or replaced; start over.
		f.offset = 0
		f.partial = f.partial[:0]
	}
	if info.Size() == f.offset {
		return
	}

	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		f.reportError(err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		f.reportError(err)
		return
	}
	f.offset += int64(len(data))

	buf := append(f.partial, data...)
	for {
		idx := bytes.IndexByte(buf, '\n')
		if idx < 0 {
			break
		}
		line := string(bytes.TrimRight(buf[:idx], "\r"))
		buf = buf[idx+1:]
		select {
		case f.lines <- line:
		case <-f.done:
			return
		}
	}
	f.partial = append(f.partial[:0], buf...)
}

func (f *Follower) reportError(err error) {
	select {
	case f.errors <- err:
	default:
	}
}
