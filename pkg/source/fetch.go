// pkg/source/fetch.go
package source

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/mapnik-tools/mapnikdeps/pkg/deps"
)

// fetchSource acquires the dependency's source tree at its pinned version
// and returns the directory it was unpacked or cloned into. Archives are
// cached under the work dir; git sources are cloned fresh at the exact tag.
func (b *Builder) fetchSource(ctx context.Context, dep deps.Dependency, logFile io.Writer) (string, error) {
	if dep.Source.GitURL != "" {
		return b.fetchGit(ctx, dep, logFile)
	}
	return b.fetchArchive(ctx, dep, logFile)
}

func (b *Builder) fetchGit(ctx context.Context, dep deps.Dependency, logFile io.Writer) (string, error) {
	srcDir := filepath.Join(b.workDir, "src", dep.Name+"-"+dep.PinnedVersion)

	// A stale checkout could be at the wrong ref; start clean.
	if err := os.RemoveAll(srcDir); err != nil {
		return "", fmt.Errorf("removing stale checkout: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(srcDir), 0755); err != nil {
		return "", fmt.Errorf("creating source dir: %w", err)
	}

	fmt.Fprintf(logFile, "==> fetch: git clone %s @ %s\n", dep.Source.GitURL, dep.Source.GitTag)
	err := b.run(ctx, b.workDir, logFile, "git",
		"clone", "--branch", dep.Source.GitTag, "--depth", "1", dep.Source.GitURL, srcDir)
	if err != nil {
		return "", fmt.Errorf("cloning %s at %s: %w", dep.Source.GitURL, dep.Source.GitTag, err)
	}

	if dep.Source.Submodules {
		err := b.run(ctx, srcDir, logFile, "git", "submodule", "update", "--init", "--depth", "1")
		if err != nil {
			return "", fmt.Errorf("fetching submodules: %w", err)
		}
	}

	return srcDir, nil
}

func (b *Builder) fetchArchive(ctx context.Context, dep deps.Dependency, logFile io.Writer) (string, error) {
	url := dep.Source.ArchiveURL
	archivePath := filepath.Join(b.workDir, "archives", filepath.Base(url))
	srcRoot := filepath.Join(b.workDir, "src")
	srcDir := filepath.Join(srcRoot, dep.Source.SourceDir)

	if err := b.download(ctx, url, archivePath, logFile); err != nil {
		return "", err
	}

	// Re-extract every run; a partially extracted tree from an aborted
	// earlier run must not be mistaken for a complete one.
	if err := os.RemoveAll(srcDir); err != nil {
		return "", fmt.Errorf("removing stale source tree: %w", err)
	}

	fmt.Fprintf(logFile, "==> fetch: extracting %s\n", filepath.Base(archivePath))
	if err := extractTar(archivePath, srcRoot); err != nil {
		return "", fmt.Errorf("extracting %s: %w", filepath.Base(archivePath), err)
	}

	if _, err := os.Stat(srcDir); err != nil {
		return "", fmt.Errorf("archive did not unpack to %s: %w", dep.Source.SourceDir, err)
	}
	return srcDir, nil
}

// download fetches url into path, skipping when the archive is already
// cached. Pinned versions make the cached file trustworthy by name.
func (b *Builder) download(ctx context.Context, url, path string, logFile io.Writer) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(logFile, "==> fetch: using cached %s\n", filepath.Base(path))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating archive dir: %w", err)
	}

	fmt.Fprintf(logFile, "==> fetch: downloading %s\n", url)
	b.logger.Printf("downloading %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: unexpected status %s", url, resp.Status)
	}

	tmp := path + ".partial"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp, err)
	}

	return os.Rename(tmp, path)
}

// extractTar unpacks a .tar.gz or .tar.xz archive into destDir.
func extractTar(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	var reader io.Reader
	switch {
	case strings.HasSuffix(archivePath, ".gz") || strings.HasSuffix(archivePath, ".tgz"):
		gzReader, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("creating gzip reader: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	case strings.HasSuffix(archivePath, ".xz"):
		xzReader, err := xz.NewReader(f)
		if err != nil {
			return fmt.Errorf("creating xz reader: %w", err)
		}
		reader = xzReader
	default:
		return fmt.Errorf("unsupported archive format: %s", filepath.Base(archivePath))
	}

	tarReader := tar.NewReader(reader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		cleanPath := filepath.Clean(strings.TrimPrefix(header.Name, "./"))
		if cleanPath == "." || cleanPath == "" {
			continue
		}
		if strings.HasPrefix(cleanPath, "..") || filepath.IsAbs(cleanPath) {
			return fmt.Errorf("archive entry escapes destination: %s", header.Name)
		}
		targetPath := filepath.Join(destDir, cleanPath)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(targetPath, 0755); err != nil {
				return fmt.Errorf("creating directory %s: %w", cleanPath, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
				return fmt.Errorf("creating directory for %s: %w", cleanPath, err)
			}
			out, err := os.OpenFile(targetPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(header.Mode)&0777)
			if err != nil {
				return fmt.Errorf("creating %s: %w", cleanPath, err)
			}
			if _, err := io.Copy(out, tarReader); err != nil {
				out.Close()
				return fmt.Errorf("writing %s: %w", cleanPath, err)
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", cleanPath, err)
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
				return fmt.Errorf("creating directory for %s: %w", cleanPath, err)
			}
			os.Remove(targetPath)
			if err := os.Symlink(header.Linkname, targetPath); err != nil {
				return fmt.Errorf("creating symlink %s: %w", cleanPath, err)
			}
		}
	}

	return nil
}
