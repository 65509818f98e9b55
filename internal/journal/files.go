// SPDX-License-Identifier: MIT

package journal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// fileStore owns the directory layout for videos and thumbnails and performs
// the blob-level move/copy/delete operations.
type fileStore struct {
	videosDir string
	thumbsDir string
}

func newFileStore(dataDir string) *fileStore {
	videosDir := filepath.Join(dataDir, "bello_videos")
	return &fileStore{
		videosDir: videosDir,
		thumbsDir: filepath.Join(videosDir, "thumbnails"),
	}
}

// ensureDirs creates the videos and thumbnails directories. Creating an
// already-existing directory is a no-op.
func (f *fileStore) ensureDirs() error {
	if err := os.MkdirAll(f.videosDir, 0o755); err != nil {
		return fmt.Errorf("create videos dir: %w", err)
	}
	if err := os.MkdirAll(f.thumbsDir, 0o755); err != nil {
		return fmt.Errorf("create thumbnails dir: %w", err)
	}
	return nil
}

// videoPath returns the stable path for a video filename.
func (f *fileStore) videoPath(filename string) string {
	return filepath.Join(f.videosDir, filename)
}

// moveVideo relocates the capture-time temporary file into the videos
// directory, consuming the source exactly once. Falls back to copy+remove
// when rename crosses filesystems.
func (f *fileStore) moveVideo(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("move video %s: %w", src, err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove temp video %s: %w", src, err)
	}
	return nil
}

// copyThumbnail copies (not moves) the source thumbnail into the thumbnails
// subdirectory and returns its stable path. The source may be a shared
// temporary artifact, so it is left in place.
func (f *fileStore) copyThumbnail(src, videoID string) (string, error) {
	dst := filepath.Join(f.thumbsDir, ThumbnailFilename(videoID))
	if err := copyFile(src, dst); err != nil {
		return "", fmt.Errorf("copy thumbnail %s: %w", src, err)
	}
	return dst, nil
}

// remove deletes a blob. A file that is already gone is not an error.
func (f *fileStore) remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
