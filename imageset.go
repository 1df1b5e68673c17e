package main

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/gobwas/glob"
	"github.com/nwaples/rardecode"
	"github.com/sirupsen/logrus"
)

// ImageRef names one displayable image: a plain file, or an entry inside a
// zip/rar/7z archive being browsed as a folder.
type ImageRef struct {
	Path        string // Local file path or archive:entry format
	ArchivePath string // Empty for regular files, path to archive for entries
	EntryPath   string // Empty for regular files, path within archive for entries
}

func isSupportedExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".ico", ".tiff", ".tif":
		return true
	default:
		return false
	}
}

func isArchiveExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".zip", ".rar", ".7z":
		return true
	default:
		return false
	}
}

// listOptions carries the configurable parts of folder listing.
type listOptions struct {
	sortMethod int
	excludes   []glob.Glob
}

// compileExcludes compiles glob patterns against file base names. Invalid
// patterns are logged and skipped rather than failing the listing.
func compileExcludes(patterns []string) []glob.Glob {
	var globs []glob.Glob
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			logrus.Warnf("ignoring invalid exclude pattern %q: %v", p, err)
			continue
		}
		globs = append(globs, g)
	}
	return globs
}

func excluded(name string, excludes []glob.Glob) bool {
	for _, g := range excludes {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// listImages returns the ordered, deduplicated set of image files directly
// inside folder. A missing or non-directory folder yields an empty set: that
// is a legitimate "show nothing" state, not a fault. Symlinks to regular
// files and dotfiles are included when their extension matches. The set is
// rebuilt in full on every call; nothing is cached.
func listImages(folder string, opts listOptions) []ImageRef {
	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return nil
	}
	entries, err := os.ReadDir(folder)
	if err != nil {
		logrus.Warnf("reading %s: %v", folder, err)
		return nil
	}

	seen := make(map[string]bool)
	var refs []ImageRef
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !isSupportedExt(name) || excluded(name, opts.excludes) {
			continue
		}
		full := filepath.Join(folder, name)
		if entry.Type()&os.ModeSymlink != 0 {
			st, err := os.Stat(full)
			if err != nil || !st.Mode().IsRegular() {
				continue
			}
		} else if !entry.Type().IsRegular() {
			continue
		}
		if seen[full] {
			continue
		}
		seen[full] = true
		refs = append(refs, ImageRef{Path: full})
	}

	return sortImageRefs(refs, opts.sortMethod)
}

// listArchiveImages lists the image entries of a zip/rar/7z archive so the
// archive can be browsed like a folder.
func listArchiveImages(archivePath string, sortMethod int) ([]ImageRef, error) {
	var (
		refs []ImageRef
		err  error
	)
	switch strings.ToLower(filepath.Ext(archivePath)) {
	case ".zip":
		refs, err = imagesFromZip(archivePath)
	case ".rar":
		refs, err = imagesFromRar(archivePath)
	case ".7z":
		refs, err = imagesFrom7z(archivePath)
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", archivePath)
	}
	if err != nil {
		return nil, err
	}
	return sortImageRefs(refs, sortMethod), nil
}

func imagesFromZip(archivePath string) ([]ImageRef, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var refs []ImageRef
	for _, f := range r.File {
		if !f.FileInfo().IsDir() && isSupportedExt(f.Name) {
			refs = append(refs, archiveRef(archivePath, f.Name))
		}
	}
	return refs, nil
}

func imagesFromRar(archivePath string) ([]ImageRef, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := rardecode.NewReader(f, "")
	if err != nil {
		return nil, err
	}

	var refs []ImageRef
	for {
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !header.IsDir && isSupportedExt(header.Name) {
			refs = append(refs, archiveRef(archivePath, header.Name))
		}
	}
	return refs, nil
}

func imagesFrom7z(archivePath string) ([]ImageRef, error) {
	r, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var refs []ImageRef
	for _, f := range r.File {
		if !f.FileInfo().IsDir() && isSupportedExt(f.Name) {
			refs = append(refs, archiveRef(archivePath, f.Name))
		}
	}
	return refs, nil
}

func archiveRef(archivePath, entryPath string) ImageRef {
	return ImageRef{
		Path:        archivePath + ":" + entryPath,
		ArchivePath: archivePath,
		EntryPath:   entryPath,
	}
}
