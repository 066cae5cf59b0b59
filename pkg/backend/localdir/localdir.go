// Package localdir implements backend.Backend against the local filesystem.
// Intended for single-node deployments and tests; does not support
// presigned URLs.
package localdir

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mladen4o/ClovaLink/pkg/backend"
)

type Backend struct {
	basePath string
}

func New(basePath string) (*Backend, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("backend/localdir: create base path: %w", err)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("backend/localdir: resolve base path: %w", err)
	}
	return &Backend{basePath: abs}, nil
}

// resolve joins key under basePath and rejects any traversal outside it.
// Backend keys are derived from content hashes or catalog paths, never
// taken verbatim from client input, but this is cheap insurance for a
// mis-sanitized caller.
func (b *Backend) resolve(key string) (string, error) {
	joined := filepath.Join(b.basePath, key)
	if joined != b.basePath && !strings.HasPrefix(joined, b.basePath+string(filepath.Separator)) {
		return "", fmt.Errorf("backend/localdir: key %q escapes base path", key)
	}
	return joined, nil
}

func (b *Backend) Put(_ context.Context, key string, r io.Reader, _ int64) error {
	path, err := b.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("backend/localdir: mkdir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("backend/localdir: create %s: %w", key, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("backend/localdir: write %s: %w", key, err)
	}
	return nil
}

func (b *Backend) PutFromPath(_ context.Context, key string, localPath string) error {
	dest, err := b.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("backend/localdir: mkdir: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("backend/localdir: open source: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("backend/localdir: create dest: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("backend/localdir: copy: %w", err)
	}
	return nil
}

func (b *Backend) Get(_ context.Context, key string) ([]byte, error) {
	path, err := b.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("backend/localdir: read %s: %w", key, err)
	}
	return data, nil
}

func (b *Backend) GetStream(_ context.Context, key string) (io.ReadCloser, uint64, error) {
	path, err := b.resolve(key)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("backend/localdir: open %s: %w", key, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("backend/localdir: stat %s: %w", key, err)
	}
	return f, uint64(info.Size()), nil
}

func (b *Backend) Delete(_ context.Context, key string) error {
	path, err := b.resolve(key)
	if err != nil {
		return err
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return nil
		}
		return fmt.Errorf("backend/localdir: stat %s: %w", key, statErr)
	}
	if info.IsDir() {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}

func (b *Backend) Exists(_ context.Context, key string) (bool, error) {
	path, err := b.resolve(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *Backend) List(_ context.Context, prefix string) ([]backend.ObjectInfo, error) {
	dir, err := b.resolve(prefix)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("backend/localdir: list %s: %w", prefix, err)
	}

	out := make([]backend.ObjectInfo, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("backend/localdir: stat entry %s: %w", e.Name(), err)
		}
		key := strings.TrimPrefix(filepath.Join(prefix, e.Name()), "/")
		out = append(out, backend.ObjectInfo{
			Key:          key,
			SizeBytes:    uint64(info.Size()),
			LastModified: info.ModTime(),
			IsDir:        info.IsDir(),
		})
	}
	return out, nil
}

func (b *Backend) Rename(_ context.Context, from, to string) error {
	fromPath, err := b.resolve(from)
	if err != nil {
		return err
	}
	toPath, err := b.resolve(to)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(toPath), 0o755); err != nil {
		return fmt.Errorf("backend/localdir: mkdir: %w", err)
	}
	if err := os.Rename(fromPath, toPath); err != nil {
		return fmt.Errorf("backend/localdir: rename %s -> %s: %w", from, to, err)
	}
	return nil
}

// PresignGet is unsupported locally; the orchestrator falls back to proxying
// bytes through the process (spec §4.1, §4.6).
func (b *Backend) PresignGet(_ context.Context, _ string, _ time.Duration) (string, error) {
	return "", nil
}

func (b *Backend) SupportsPresignedURLs() bool { return false }

func (b *Backend) Healthcheck(_ context.Context) (time.Duration, error) {
	start := time.Now()
	info, err := os.Stat(b.basePath)
	if err != nil {
		return 0, fmt.Errorf("backend/localdir: healthcheck: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("backend/localdir: base path is not a directory")
	}
	return time.Since(start), nil
}

var _ backend.Backend = (*Backend)(nil)
