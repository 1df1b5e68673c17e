package main

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bodgit/sevenzip"
	_ "github.com/fyne-io/image/ico"
	"github.com/hajimehoshi/ebiten/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/nwaples/rardecode"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// NavigationDirection represents the direction of navigation
type NavigationDirection int

const (
	NavigationForward NavigationDirection = iota
	NavigationBackward
	NavigationJump
)

// PreloadRequest asks the worker to warm the cache around an index.
type PreloadRequest struct {
	Index     int
	Direction NavigationDirection
}

// PreloadStats is a snapshot of the preloader's counters, shown on the debug
// overlay.
type PreloadStats struct {
	QueueSize     int
	LoadedCount   int
	FailedCount   int
	LastDirection NavigationDirection
}

// preloadSummary formats the stats for the overlay line.
func preloadSummary(s PreloadStats) string {
	return fmt.Sprintf("preload: %d loaded, %d failed, %d queued", s.LoadedCount, s.FailedCount, s.QueueSize)
}

// PreloadManager warms the image cache around the current position on a
// single worker goroutine so prev/next rarely hit a synchronous decode.
type PreloadManager struct {
	requestChan  chan PreloadRequest
	ctx          context.Context
	cancel       context.CancelFunc
	imageManager *DefaultImageManager
	mu           sync.RWMutex
	stats        PreloadStats
	maxPreload   int
	enabled      bool
}

func NewPreloadManager(imageManager *DefaultImageManager, maxPreload int) *PreloadManager {
	ctx, cancel := context.WithCancel(context.Background())
	pm := &PreloadManager{
		requestChan:  make(chan PreloadRequest, 100),
		ctx:          ctx,
		cancel:       cancel,
		imageManager: imageManager,
		maxPreload:   maxPreload,
		enabled:      true,
	}

	go pm.worker()

	return pm
}

func (pm *PreloadManager) SetEnabled(enabled bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = enabled
}

func (pm *PreloadManager) IsEnabled() bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.enabled
}

// GetStats snapshots the counters; the queue size is read live from the
// request channel.
func (pm *PreloadManager) GetStats() PreloadStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	s := pm.stats
	s.QueueSize = len(pm.requestChan)
	return s
}

// Stop stops the worker goroutine.
func (pm *PreloadManager) Stop() {
	pm.cancel()
}

// StartPreload starts preloading images from the current index in the
// specified direction. Pending requests are discarded first so the worker
// always follows the latest position.
func (pm *PreloadManager) StartPreload(currentIdx int, direction NavigationDirection) {
	if !pm.IsEnabled() {
		return
	}

drain:
	for {
		select {
		case <-pm.requestChan:
		default:
			break drain
		}
	}

	select {
	case pm.requestChan <- PreloadRequest{Index: currentIdx, Direction: direction}:
	default:
		logrus.Debug("preload request channel full, skipping")
	}
}

func (pm *PreloadManager) worker() {
	for {
		select {
		case <-pm.ctx.Done():
			return
		case req := <-pm.requestChan:
			if pm.IsEnabled() {
				pm.processPreloadRequest(req)
			}
		}
	}
}

func (pm *PreloadManager) processPreloadRequest(req PreloadRequest) {
	pm.mu.Lock()
	pm.stats.LastDirection = req.Direction
	pm.mu.Unlock()

	refsCount := pm.imageManager.RefsCount()
	if refsCount == 0 {
		return
	}

	// Checked between images so Stop does not wait for a whole batch
	for _, idx := range pm.calculatePreloadIndices(req.Index, req.Direction, refsCount) {
		select {
		case <-pm.ctx.Done():
			return
		default:
			pm.preloadImage(idx)
		}
	}
}

// calculatePreloadIndices picks the indices to warm: ahead of the current
// position when moving forward, behind it when moving backward, and half in
// each direction after a jump.
func (pm *PreloadManager) calculatePreloadIndices(currentIdx int, direction NavigationDirection, refsCount int) []int {
	var indices []int
	ahead := func(n int) {
		for i := 1; i <= n; i++ {
			if idx := currentIdx + i; idx < refsCount {
				indices = append(indices, idx)
			}
		}
	}
	behind := func(n int) {
		for i := 1; i <= n; i++ {
			if idx := currentIdx - i; idx >= 0 {
				indices = append(indices, idx)
			}
		}
	}

	switch direction {
	case NavigationForward:
		ahead(pm.maxPreload)
	case NavigationBackward:
		behind(pm.maxPreload)
	case NavigationJump:
		ahead(pm.maxPreload / 2)
		behind(pm.maxPreload / 2)
	}

	return indices
}

// preloadImage loads one image into the cache on a miss. A failed decode
// caches the placeholder too, so the failure is not retried on every frame.
func (pm *PreloadManager) preloadImage(idx int) {
	ref, ok := pm.imageManager.getRef(idx)
	if !ok {
		return
	}
	if _, ok := pm.imageManager.cache.Get(ref.Path); ok {
		return
	}

	img, err := loadImage(ref)
	if err != nil {
		pm.bump(&pm.stats.FailedCount)
		logrus.Debugf("preload failed for [%d] %s: %v", idx+1, ref.Path, err)
		img = CreateErrorImage(400, 300, ref.Path, err.Error())
	}

	pm.imageManager.cache.Add(ref.Path, img)
	pm.bump(&pm.stats.LoadedCount)

	logrus.Debugf("preloaded [%d] %s (cache: %d items)", idx+1, ref.Path, pm.imageManager.cache.Len())
}

func (pm *PreloadManager) bump(counter *int) {
	pm.mu.Lock()
	*counter++
	pm.mu.Unlock()
}

// ImageManager manages full-size image loading and caching for the viewer.
type ImageManager interface {
	Image(idx int) *ebiten.Image
	SetRefs(refs []ImageRef)
	RefsCount() int
	StartPreload(currentIdx int, direction NavigationDirection)
	StopPreload()
	GetPreloadStats() PreloadStats
}

// DefaultImageManager implements ImageManager with a path-keyed LRU cache.
// Keys are full paths, so a listing rebuild never invalidates entries and a
// cached image is valid for its path no matter when it was loaded.
type DefaultImageManager struct {
	refs           []ImageRef
	cache          *lru.Cache[string, *ebiten.Image]
	mu             sync.RWMutex
	preloadManager *PreloadManager
}

func newImageCache(cacheSize int) *lru.Cache[string, *ebiten.Image] {
	cache, err := lru.NewWithEvict[string, *ebiten.Image](cacheSize, func(_ string, img *ebiten.Image) {
		if img != nil {
			img.Deallocate()
		}
	})
	if err != nil {
		logrus.Errorf("failed to create LRU cache: %v", err)
		cache, _ = lru.NewWithEvict[string, *ebiten.Image](16, func(_ string, img *ebiten.Image) {
			if img != nil {
				img.Deallocate()
			}
		})
	}
	return cache
}

// NewImageManager creates a new DefaultImageManager without preloading.
func NewImageManager(cacheSize int) ImageManager {
	return &DefaultImageManager{
		refs:  []ImageRef{},
		cache: newImageCache(cacheSize),
	}
}

// NewImageManagerWithPreload creates a new DefaultImageManager with preload configuration
func NewImageManagerWithPreload(cacheSize int, preloadCount int, preloadEnabled bool) ImageManager {
	manager := &DefaultImageManager{
		refs:  []ImageRef{},
		cache: newImageCache(cacheSize),
	}

	manager.preloadManager = NewPreloadManager(manager, preloadCount)
	manager.preloadManager.SetEnabled(preloadEnabled)

	return manager
}

func (m *DefaultImageManager) SetRefs(refs []ImageRef) {
	m.mu.Lock()
	m.refs = refs
	m.mu.Unlock()
	// No need to clear the cache since file paths are the keys
	logrus.Debugf("SetRefs: %d refs, cache preserved (%d items)", len(refs), m.cache.Len())
}

func (m *DefaultImageManager) RefsCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.refs)
}

func (m *DefaultImageManager) StartPreload(currentIdx int, direction NavigationDirection) {
	if m.preloadManager != nil {
		m.preloadManager.StartPreload(currentIdx, direction)
	}
}

func (m *DefaultImageManager) StopPreload() {
	if m.preloadManager != nil {
		m.preloadManager.Stop()
	}
}

func (m *DefaultImageManager) GetPreloadStats() PreloadStats {
	if m.preloadManager != nil {
		return m.preloadManager.GetStats()
	}
	return PreloadStats{}
}

// Image returns the full-size image for the ref at idx, loading it
// synchronously on a cache miss. Decode failures yield a placeholder, never
// nil, so the viewer always has something to draw.
func (m *DefaultImageManager) Image(idx int) *ebiten.Image {
	ref, ok := m.getRef(idx)
	if !ok {
		return nil
	}
	cacheKey := ref.Path

	img, ok := m.cache.Get(cacheKey)
	if ok {
		return img
	}

	img, err := loadImage(ref)
	if err != nil {
		logrus.Errorf("failed to load image %s: %v", ref.Path, err)
		return CreateErrorImage(400, 300, ref.Path, err.Error())
	}

	m.cache.Add(cacheKey, img)
	return img
}

func (m *DefaultImageManager) getRef(idx int) (ImageRef, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if idx < 0 || idx >= len(m.refs) {
		return ImageRef{}, false
	}
	return m.refs[idx], true
}

// Image decoding

// decodeImage decodes the referenced image into a raw image.Image. Shared by
// the full-size loader and the thumbnail worker; only the UI thread turns the
// result into an ebiten.Image.
func decodeImage(ref ImageRef) (image.Image, error) {
	if ref.ArchivePath == "" {
		f, err := os.Open(ref.Path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %v", ref.Path, err)
		}
		return img, nil
	}

	data, err := readArchiveEntry(ref.ArchivePath, ref.EntryPath)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %v", ref.Path, err)
	}
	return img, nil
}

func loadImage(ref ImageRef) (*ebiten.Image, error) {
	img, err := decodeImage(ref)
	if err != nil {
		return nil, err
	}
	return ebiten.NewImageFromImage(img), nil
}

func readArchiveEntry(archivePath, entryPath string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(archivePath)) {
	case ".zip":
		return readZipEntry(archivePath, entryPath)
	case ".rar":
		return readRarEntry(archivePath, entryPath)
	case ".7z":
		return read7zEntry(archivePath, entryPath)
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", archivePath)
	}
}

func readZipEntry(archivePath, entryPath string) ([]byte, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name == entryPath {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("entry %s not found in %s", entryPath, archivePath)
}

func readRarEntry(archivePath, entryPath string) ([]byte, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := rardecode.NewReader(f, "")
	if err != nil {
		return nil, err
	}

	for {
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header.Name == entryPath {
			return io.ReadAll(r)
		}
	}
	return nil, fmt.Errorf("entry %s not found in %s", entryPath, archivePath)
}

func read7zEntry(archivePath, entryPath string) ([]byte, error) {
	r, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name == entryPath {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("entry %s not found in %s", entryPath, archivePath)
}
