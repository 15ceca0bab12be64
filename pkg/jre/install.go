package jre

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/matzehuels/mvnboot/pkg/download"
)

// InstallOptions configures Install.
type InstallOptions struct {
	Dir         string               // Final runtime directory, e.g. ./runtime
	Arch        string               // Archive arch; empty detects
	GOOS        string               // Target os; empty uses runtime.GOOS
	URLTemplate string               // Empty uses DefaultURLTemplate
	Client      *http.Client         // Optional
	Progress    func(entry string)   // Called per extracted entry (optional)
	Logger      func(string, ...any) // Optional
}

// Install downloads the runtime archive, unpacks it next to Dir and renames
// the archive's jdk-*-jre directory to Dir. Dir must not exist yet.
func Install(ctx context.Context, opts InstallOptions) error {
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	if opts.Progress == nil {
		opts.Progress = func(string) {}
	}
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	osName, ext, err := Platform(goos)
	if err != nil {
		return err
	}
	arch, err := Arch(opts.Arch)
	if err != nil {
		return err
	}
	if _, err := os.Stat(opts.Dir); err == nil {
		return fmt.Errorf("%s already exists", opts.Dir)
	}

	parent := filepath.Dir(filepath.Clean(opts.Dir))
	staging, err := os.MkdirTemp(parent, ".jre-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)

	url := URL(opts.URLTemplate, arch, osName, ext)
	opts.Logger("downloading runtime from %s", url)
	archive, err := download.File(ctx, opts.Client, url, staging)
	if err != nil {
		return fmt.Errorf("download runtime: %w", err)
	}

	extracted := filepath.Join(staging, "x")
	opts.Logger("extracting %s", filepath.Base(archive))
	if err := Extract(archive, extracted, opts.Progress); err != nil {
		return fmt.Errorf("extract runtime: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(extracted, "jdk-*-jre"))
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return errors.New("extract runtime: archive has no jdk-*-jre directory")
	}
	return os.Rename(matches[0], opts.Dir)
}

// Extract unpacks a .tar.gz/.tgz or .zip archive into dest. Entries that
// would land outside dest are rejected.
func Extract(archive, dest string, progress func(string)) error {
	if progress == nil {
		progress = func(string) {}
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	switch name := strings.ToLower(archive); {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return extractTarGz(archive, dest, progress)
	case strings.HasSuffix(name, ".zip"):
		return extractZip(archive, dest, progress)
	}
	return fmt.Errorf("unknown archive format: %s", filepath.Base(archive))
}

func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	if !within(dest, target) {
		return "", fmt.Errorf("illegal path in archive: %s", name)
	}
	if err := noLinkedParents(dest, target); err != nil {
		return "", fmt.Errorf("illegal path in archive: %s: %w", name, err)
	}
	return target, nil
}

func within(dest, target string) bool {
	rel, err := filepath.Rel(dest, target)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// noLinkedParents fails when a directory between dest and target already
// exists as a symlink, since writing through it could leave dest.
func noLinkedParents(dest, target string) error {
	rel, err := filepath.Rel(dest, filepath.Dir(target))
	if err != nil || rel == "." {
		return err
	}
	dir := dest
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		dir = filepath.Join(dir, part)
		fi, err := os.Lstat(dir)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if fi.Mode()&fs.ModeSymlink != 0 {
			return fmt.Errorf("%s is a symlink", part)
		}
	}
	return nil
}

// checkLink rejects link targets that are absolute or resolve outside dest.
func checkLink(dest, target, linkname string) error {
	if filepath.IsAbs(linkname) || strings.HasPrefix(linkname, "/") {
		return fmt.Errorf("illegal link in archive: %s -> %s", target, linkname)
	}
	if !within(dest, filepath.Join(filepath.Dir(target), filepath.FromSlash(linkname))) {
		return fmt.Errorf("illegal link in archive: %s -> %s", target, linkname)
	}
	return nil
}

func extractTarGz(archive, dest string, progress func(string)) error {
	f, err := os.Open(archive)
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
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
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
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := checkLink(dest, target, hdr.Linkname); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		default:
			continue
		}
		progress(hdr.Name)
	}
}

func extractZip(archive, dest string, progress func(string)) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, zf := range zr.File {
		target, err := safeJoin(dest, zf.Name)
		if err != nil {
			return err
		}
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			progress(zf.Name)
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return err
		}
		err = writeFile(target, rc, zf.Mode().Perm())
		rc.Close()
		if err != nil {
			return err
		}
		progress(zf.Name)
	}
	return nil
}

func writeFile(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if perm == 0 {
		perm = 0o644
	}
	// Replace an earlier link entry instead of writing through it.
	if fi, err := os.Lstat(target); err == nil && fi.Mode()&fs.ModeSymlink != 0 {
		if err := os.Remove(target); err != nil {
			return err
		}
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
