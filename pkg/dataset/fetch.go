package dataset

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const fetchTimeout = 30 * time.Second

// fetchClient is the shared HTTP client for archive and artifact downloads
var fetchClient = &http.Client{
	Timeout: fetchTimeout,
}

// EnsureDataset downloads a .tar.gz archive from url and extracts it into dir
// unless dir already exists and is non-empty. Repeated calls are no-ops, so
// the fetch can run unconditionally at startup.
func EnsureDataset(url, dir string) error {
	entries, err := os.ReadDir(dir)
	if err == nil && len(entries) > 0 {
		return nil
	}
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("checking dataset directory %s: %v", dir, err)
	}

	resp, err := fetchClient.Get(url)
	if err != nil {
		return fmt.Errorf("downloading dataset archive: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading dataset archive: unexpected status %s", resp.Status)
	}

	if err := extractTarGz(resp.Body, dir); err != nil {
		return fmt.Errorf("extracting dataset archive: %v", err)
	}

	return nil
}

// EnsureFile downloads url to path unless path already exists.
func EnsureFile(url, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	resp, err := fetchClient.Get(url)
	if err != nil {
		return fmt.Errorf("downloading %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: unexpected status %s", url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		return fmt.Errorf("writing %s: %v", path, err)
	}

	return nil
}

// extractTarGz extracts a gzip-compressed tar stream into dir. Entry names
// are validated so an archive cannot write outside dir.
func extractTarGz(r io.Reader, dir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		target, err := sanitizePath(dir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}

			file, err := os.Create(target)
			if err != nil {
				return err
			}
			if _, err := io.Copy(file, tr); err != nil {
				file.Close()
				return err
			}
			file.Close()
		}
	}

	return nil
}

// sanitizePath joins an archive entry name with the extraction root and
// rejects entries that would escape it.
func sanitizePath(dir, name string) (string, error) {
	target := filepath.Join(dir, filepath.Clean(name))
	if target != dir && !strings.HasPrefix(target, dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes extraction directory", name)
	}
	return target, nil
}
