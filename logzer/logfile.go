package logzer

import (
	"fmt"
	"os"
	"sync"
)

// LogFile appends to FilePath and rotates it by MaxSize,
// keeping Rotate numbered copies: FilePath.1 is the newest
type LogFile struct {
	mu   sync.Mutex
	file *os.File
	size int64

	FilePath string
	MaxSize  int64
	Rotate   int
}

// Close implements io.Closer interface
func (f *LogFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

// Write implements io.Writer interface
func (f *LogFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		if err := f.open(); err != nil {
			return 0, err
		}
	}
	if f.MaxSize > 0 && f.size > 0 && f.size+int64(len(p)) > f.MaxSize {
		if err := f.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := f.file.Write(p)
	if err != nil {
		// file could be removed or moved by outer tool
		if err = f.open(); err == nil {
			n, err = f.file.Write(p)
		}
	}
	f.size += int64(n)
	return n, err
}

func (f *LogFile) open() error {
	if f.file != nil {
		_ = f.file.Close()
		f.file = nil
	}
	file, err := os.OpenFile(f.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("could not open log file: %w", err)
	}
	f.file, f.size = file, 0
	if fi, err := file.Stat(); err == nil {
		f.size = fi.Size()
	}
	return nil
}

func (f *LogFile) rotate() error {
	_ = f.file.Close()
	f.file = nil
	if f.Rotate <= 0 {
		_ = os.Remove(f.FilePath)
	} else {
		for i := f.Rotate; i > 1; i-- {
			_ = os.Rename(fmt.Sprintf("%s.%d", f.FilePath, i-1), fmt.Sprintf("%s.%d", f.FilePath, i))
		}
		_ = os.Rename(f.FilePath, f.FilePath+".1")
	}
	return f.open()
}
