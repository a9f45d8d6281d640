package artlife

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// WinnerSink persists the archive of genomes that reached the goal and returns
// where it was stored.
type WinnerSink interface {
	SaveWinners(generation int, archive *GenomeArchive) (string, error)
}

// Notifier is told about every archive a sink has written.
type Notifier interface {
	Notify(ctx context.Context, path string) error
}

// DirSink writes winner archives as GIF files into a directory, named
// leaders_<in>.<hidden>.<out>_<generation>_<saveNumber>.gif, and then hands
// the path to an optional Notifier.
type DirSink struct {
	Dir           string
	Sizes         LayerSizes
	SaveNumber    int // number of the next archive written
	Notifier      Notifier
	NotifyTimeout time.Duration
	Logger        *slog.Logger
}

// NewDirSink creates a sink for dir. The directory is created on first save.
func NewDirSink(dir string, sizes LayerSizes) *DirSink {
	return &DirSink{Dir: dir, Sizes: sizes, NotifyTimeout: 30 * time.Second, Logger: slog.Default()}
}

// FileName returns the archive name used for a generation and save number.
func (s *DirSink) FileName(generation, saveNumber int) string {
	return fmt.Sprintf("leaders_%s_%d_%d.gif", s.Sizes, generation, saveNumber)
}

// SaveWinners writes the archive and notifies. A notification failure is
// returned together with the path of the file that was written.
func (s *DirSink) SaveWinners(generation int, archive *GenomeArchive) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create save directory '%s': %w", s.Dir, err)
	}
	path := filepath.Join(s.Dir, s.FileName(generation, s.SaveNumber))
	if err := SaveArchive(path, archive); err != nil {
		return "", err
	}
	s.SaveNumber++
	s.logger().Info("archive written", "path", path, "frames", archive.Len())

	if s.Notifier == nil {
		return path, nil
	}
	ctx := context.Background()
	if s.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.NotifyTimeout)
		defer cancel()
	}
	if err := s.Notifier.Notify(ctx, path); err != nil {
		return path, fmt.Errorf("archive written but notification failed: %w", err)
	}
	return path, nil
}

func (s *DirSink) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
