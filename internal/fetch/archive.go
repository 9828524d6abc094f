package fetch

import (
	"archive/tar"
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Format is an archive container format.
type Format string

const (
	FormatTar    Format = "tar"
	FormatTarGz  Format = "tar.gz"
	FormatTarZst Format = "tar.zst"
	FormatZip    Format = "zip"
)

// ErrUnsupportedArchive is returned for archive names with an unknown suffix.
var ErrUnsupportedArchive = errors.New("unsupported archive format")

// FormatFromName picks the archive format from a file name or URL path.
func FormatFromName(name string) (Format, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return FormatZip, nil
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FormatTarGz, nil
	case strings.HasSuffix(lower, ".tar.zst"), strings.HasSuffix(lower, ".tzst"):
		return FormatTarZst, nil
	case strings.HasSuffix(lower, ".tar"):
		return FormatTar, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedArchive, path.Base(name))
}

// ExtractFile unpacks the archive at src into dest.
func ExtractFile(src string, format Format, dest string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	if format == FormatZip {
		return extractZip(src, dest)
	}
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	return ExtractStream(f, format, dest)
}

// ExtractStream unpacks a tar-based archive read from r into dest.
func ExtractStream(r io.Reader, format Format, dest string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	switch format {
	case FormatTar:
		return extractTar(r, dest)
	case FormatTarGz:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		return extractTar(zr, dest)
	case FormatTarZst:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return fmt.Errorf("zstd: %w", err)
		}
		defer zr.Close()
		return extractTar(zr, dest)
	}
	return fmt.Errorf("%w: %s cannot be streamed", ErrUnsupportedArchive, format)
}

func extractTar(r io.Reader, dest string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("tar: %w", err)
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr); err != nil {
				return err
			}
		default:
			// Links and devices are never part of a stored snapshot.
		}
	}
}

func extractZip(src, dest string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("zip: %w", err)
	}
	defer zr.Close()

	for _, zf := range zr.File {
		target, err := safeJoin(dest, zf.Name)
		if err != nil {
			return err
		}
		mode := zf.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case mode.IsRegular():
			rc, err := zf.Open()
			if err != nil {
				return fmt.Errorf("zip %s: %w", zf.Name, err)
			}
			err = writeFile(target, rc)
			rc.Close()
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func writeFile(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// safeJoin resolves an archive entry name under dest, rejecting entries
// that would land outside it.
func safeJoin(dest, name string) (string, error) {
	rel := path.Clean(strings.ReplaceAll(name, `\`, "/"))
	if path.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("archive entry %q escapes the extraction directory", name)
	}
	return filepath.Join(dest, filepath.FromSlash(rel)), nil
}
