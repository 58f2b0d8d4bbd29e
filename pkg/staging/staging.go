// Package staging manages the two scratch directories that hold the
// extracted configuration trees during one diff attempt.
//
// The child paths beneath the work root are fixed, not randomized, so the
// audit's working area is predictable for operators. The cost is that at
// most one audit may use a given work root at a time; Prepare fails loudly
// when a collision (or stale leftover) is detected.
package staging

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ml4/tfe-probe/pkg/fault"
)

// Area is a pair of exclusively-owned scratch directories, one per side of
// the comparison, plus the single-use archive paths feeding them.
type Area struct {
	// CurrentDir and PreviousDir receive the extracted trees.
	CurrentDir  string
	PreviousDir string
	// CurrentArchive and PreviousArchive are the temporary archive paths
	// the downloads are written to. Extract deletes them.
	CurrentArchive  string
	PreviousArchive string

	log zerolog.Logger
}

// New builds an area rooted at the given work directory.
func New(root string, log zerolog.Logger) *Area {
	return &Area{
		CurrentDir:      filepath.Join(root, "cv0"),
		PreviousDir:     filepath.Join(root, "cv1"),
		CurrentArchive:  filepath.Join(root, "cv0blob.tgz"),
		PreviousArchive: filepath.Join(root, "cv1blob.tgz"),
		log:             log,
	}
}

// Prepare creates both scratch directories. A directory that already
// exists means stale content from a prior run could pollute the diff, so
// it is a filesystem fault rather than being reused.
func (a *Area) Prepare() error {
	for _, dir := range []string{a.CurrentDir, a.PreviousDir} {
		a.log.Debug().Str("dir", dir).Msg("creating staging directory")
		if err := os.Mkdir(dir, 0755); err != nil {
			return fault.Filesystemf("creating staging directory %s: %v", dir, err)
		}
	}
	return nil
}

// Extract opens archivePath as a tar stream (gzip-compressed or plain),
// extracts every entry into targetDir and deletes the archive. Entry paths
// are confined to targetDir; an entry that would escape it is rejected.
func (a *Area) Extract(archivePath, targetDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fault.Filesystemf("opening archive %s: %v", archivePath, err)
	}
	defer f.Close()

	var stream io.Reader = f
	magic := make([]byte, 2)
	if n, _ := io.ReadFull(f, magic); n == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return fault.Filesystemf("rewinding archive %s: %v", archivePath, err)
		}
		zr, err := gzip.NewReader(f)
		if err != nil {
			return fault.Filesystemf("opening archive %s as gzip: %v", archivePath, err)
		}
		defer zr.Close()
		stream = zr
	} else {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return fault.Filesystemf("rewinding archive %s: %v", archivePath, err)
		}
	}

	tr := tar.NewReader(stream)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fault.Filesystemf("reading archive %s: %v", archivePath, err)
		}

		name := sanitizeEntryPath(hdr.Name)
		if name == "" {
			continue
		}
		dest := filepath.Join(targetDir, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, 0755); err != nil {
				return fault.Filesystemf("extracting %s from %s: %v", hdr.Name, archivePath, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return fault.Filesystemf("extracting %s from %s: %v", hdr.Name, archivePath, err)
			}
			out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
			if err != nil {
				return fault.Filesystemf("extracting %s from %s: %v", hdr.Name, archivePath, err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return fault.Filesystemf("extracting %s from %s: %v", hdr.Name, archivePath, err)
			}
			if err := out.Close(); err != nil {
				return fault.Filesystemf("extracting %s from %s: %v", hdr.Name, archivePath, err)
			}
		default:
			// Links and special files are not configuration content.
			a.log.Debug().Str("entry", hdr.Name).Msg("skipping non-regular archive entry")
		}
	}

	if err := os.Remove(archivePath); err != nil {
		return fault.Filesystemf("removing archive %s: %v", archivePath, err)
	}
	return nil
}

// Teardown recursively removes both directories and any archive that was
// downloaded but never extracted. Post-condition: the filesystem is as it
// was before Prepare. A removal failure signals a filesystem inconsistency
// that should halt the audit.
func (a *Area) Teardown() error {
	for _, dir := range []string{a.CurrentDir, a.PreviousDir} {
		a.log.Debug().Str("dir", dir).Msg("removing staging directory")
		if err := os.RemoveAll(dir); err != nil {
			return fault.Filesystemf("removing staging directory %s: %v", dir, err)
		}
	}
	for _, archive := range []string{a.CurrentArchive, a.PreviousArchive} {
		if err := os.Remove(archive); err != nil && !os.IsNotExist(err) {
			return fault.Filesystemf("removing archive %s: %v", archive, err)
		}
	}
	return nil
}

// sanitizeEntryPath normalizes an archive entry path: forward slashes, no
// leading slash, '.' and '..' segments resolved without escaping the root.
func sanitizeEntryPath(p string) string {
	s := strings.TrimLeft(filepath.ToSlash(p), "/")
	parts := strings.Split(s, "/")
	stack := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
		case "..":
			if n := len(stack); n > 0 {
				stack = stack[:n-1]
			}
		default:
			stack = append(stack, part)
		}
	}
	return strings.Join(stack, "/")
}
