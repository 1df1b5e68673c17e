package main

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
}

func listedNames(refs []ImageRef) []string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, filepath.Base(ref.Path))
	}
	return names
}

func TestListImagesFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "c.gif", "a.png", "b.jpg", "note.txt", "archive.zip")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	writeFiles(t, filepath.Join(dir, "sub"), "nested.png")

	refs := listImages(dir, listOptions{sortMethod: SortLexical})

	assert.Equal(t, []string{"a.png", "b.jpg", "c.gif"}, listedNames(refs),
		"non-images, archives and subdirectories are excluded; order is lexicographic")
	for _, ref := range refs {
		assert.Empty(t, ref.ArchivePath)
		assert.Empty(t, ref.EntryPath)
	}
}

func TestListImagesIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.png", "b.png")

	first := listImages(dir, listOptions{sortMethod: SortLexical})
	second := listImages(dir, listOptions{sortMethod: SortLexical})
	assert.Equal(t, first, second)
}

func TestListImagesMissingFolder(t *testing.T) {
	refs := listImages(filepath.Join(t.TempDir(), "nope"), listOptions{})
	assert.Empty(t, refs)
}

func TestListImagesFolderIsFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.png")
	refs := listImages(filepath.Join(dir, "a.png"), listOptions{})
	assert.Empty(t, refs)
}

func TestListImagesDotfiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, ".hidden.png", "plain.png")

	refs := listImages(dir, listOptions{sortMethod: SortLexical})
	assert.Equal(t, []string{".hidden.png", "plain.png"}, listedNames(refs),
		"dotfiles with a matching extension are included")
}

func TestListImagesSymlinks(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "real.png")
	if err := os.Symlink(filepath.Join(dir, "real.png"), filepath.Join(dir, "link.png")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone.png"), filepath.Join(dir, "broken.png")))

	refs := listImages(dir, listOptions{sortMethod: SortLexical})
	assert.Equal(t, []string{"link.png", "real.png"}, listedNames(refs),
		"symlinks to regular files count, broken symlinks do not")
}

func TestListImagesExcludePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "keep.png", "skip_tmp.png", "also.gif")

	opts := listOptions{
		sortMethod: SortLexical,
		excludes:   compileExcludes([]string{"*_tmp.*", "*.gif"}),
	}
	refs := listImages(dir, opts)
	assert.Equal(t, []string{"keep.png"}, listedNames(refs))
}

func TestCompileExcludesSkipsInvalid(t *testing.T) {
	globs := compileExcludes([]string{"[", "*.png"})
	assert.Len(t, globs, 1, "invalid patterns are skipped, valid ones kept")
}

func TestIsSupportedExt(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"PNG file", "test.png", true},
		{"JPG file", "test.jpg", true},
		{"JPEG file", "test.jpeg", true},
		{"WebP file", "test.webp", true},
		{"BMP file", "test.bmp", true},
		{"GIF file", "test.gif", true},
		{"ICO file", "test.ico", true},
		{"TIFF file", "test.tiff", true},
		{"TIF file", "test.tif", true},
		{"PNG uppercase", "test.PNG", true},
		{"Text file", "test.txt", false},
		{"Archive", "test.zip", false},
		{"No extension", "test", false},
		{"Empty string", "", false},
		{"Multiple dots", "test.backup.jpg", true},
		{"Path with directory", "/path/to/test.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSupportedExt(tt.path); got != tt.expected {
				t.Errorf("isSupportedExt(%s) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}

func TestIsArchiveExt(t *testing.T) {
	assert.True(t, isArchiveExt("comics.zip"))
	assert.True(t, isArchiveExt("comics.RAR"))
	assert.True(t, isArchiveExt("comics.7z"))
	assert.False(t, isArchiveExt("comics.tar"))
	assert.False(t, isArchiveExt("image.png"))
}

func TestArchiveRef(t *testing.T) {
	ref := archiveRef("/data/pics.zip", "inner/a.png")
	assert.Equal(t, "/data/pics.zip:inner/a.png", ref.Path)
	assert.Equal(t, "/data/pics.zip", ref.ArchivePath)
	assert.Equal(t, "inner/a.png", ref.EntryPath)
}

func TestListArchiveImagesUnsupported(t *testing.T) {
	_, err := listArchiveImages("/data/pics.tar", SortLexical)
	assert.Error(t, err)
}

func TestListArchiveImagesZip(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "pics.zip")

	f, err := os.Create(archivePath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, name := range []string{"b.png", "a.png", "readme.txt", "sub/c.jpg"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte("x"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	refs, err := listArchiveImages(archivePath, SortLexical)
	require.NoError(t, err)

	entries := make([]string, 0, len(refs))
	for _, ref := range refs {
		assert.Equal(t, archivePath, ref.ArchivePath)
		entries = append(entries, ref.EntryPath)
	}
	assert.Equal(t, []string{"a.png", "b.png", "sub/c.jpg"}, entries)
}
