package python

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const completeMarker = ".complete"

// fetcher downloads the interpreter distribution into a cache directory.
type fetcher struct {
	client  *http.Client
	maxSize int64
}

// fetch stores rawURL under dir and returns the local path. A previously
// downloaded file is reused. file:// URLs and bare paths are used in place.
func (f *fetcher) fetch(ctx context.Context, rawURL, dir string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid distribution url: %w", err)
	}

	switch parsed.Scheme {
	case "", "file":
		p := parsed.Path
		if parsed.Scheme == "" {
			p = rawURL
		}
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("distribution not found: %w", err)
		}
		return p, nil
	case "http", "https":
	default:
		return "", fmt.Errorf("scheme must be http, https or file: %s", parsed.Scheme)
	}

	name := path.Base(parsed.Path)
	if name == "." || name == "/" {
		return "", fmt.Errorf("distribution url has no file name: %s", rawURL)
	}
	dest := filepath.Join(dir, name)

	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed: %s", resp.Status)
	}
	if f.maxSize > 0 && resp.ContentLength > f.maxSize {
		return "", fmt.Errorf("distribution exceeds max size (%d bytes)", f.maxSize)
	}

	tmp, err := os.CreateTemp(dir, name+".*.part")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	body := io.Reader(resp.Body)
	if f.maxSize > 0 {
		body = io.LimitReader(resp.Body, f.maxSize+1)
	}

	n, err := io.Copy(tmp, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("download %s: %w", name, err)
	}
	if f.maxSize > 0 && n > f.maxSize {
		return "", fmt.Errorf("distribution exceeds max size (%d bytes)", f.maxSize)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", err
	}
	return dest, nil
}

// distribution is an unpacked interpreter: the module and the host
// directory mounted at /usr in the guest, if any.
type distribution struct {
	wasm   string
	usrDir string
}

// unpack resolves a downloaded file into a distribution. Archives are
// extracted next to the download once; a bare .wasm is used directly.
func unpack(file string) (distribution, error) {
	if strings.HasSuffix(file, ".wasm") {
		return distribution{wasm: file}, nil
	}
	if !strings.HasSuffix(file, ".tar.gz") && !strings.HasSuffix(file, ".tgz") {
		return distribution{}, fmt.Errorf("unsupported distribution format: %s", filepath.Base(file))
	}

	root := strings.TrimSuffix(strings.TrimSuffix(file, ".tar.gz"), ".tgz")
	if _, err := os.Stat(filepath.Join(root, completeMarker)); err != nil {
		if err := os.RemoveAll(root); err != nil {
			return distribution{}, err
		}
		if err := extractTarGz(file, root); err != nil {
			os.RemoveAll(root)
			return distribution{}, fmt.Errorf("extract %s: %w", filepath.Base(file), err)
		}
		if err := os.WriteFile(filepath.Join(root, completeMarker), nil, 0o644); err != nil {
			return distribution{}, err
		}
	}
	return locate(root)
}

// locate finds the interpreter module and the usr tree inside root.
func locate(root string) (distribution, error) {
	var dist distribution
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		switch {
		case d.IsDir() && d.Name() == "usr" && dist.usrDir == "":
			dist.usrDir = p
			return fs.SkipDir
		case !d.IsDir() && strings.HasSuffix(d.Name(), ".wasm") && dist.wasm == "":
			dist.wasm = p
		}
		return nil
	})
	if err != nil {
		return distribution{}, err
	}
	if dist.wasm == "" {
		return distribution{}, errors.New("no .wasm module in distribution")
	}
	return dist, nil
}

func extractTarGz(file, dest string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		target := filepath.Join(dest, filepath.FromSlash(hdr.Name))
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal path in archive: %s", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		}
	}
}
