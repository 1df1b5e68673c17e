package main

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"
	"github.com/sqweek/dialog"
)

const panStep = 50

// InputAppState is the read surface the views and the action executor share.
type InputAppState interface {
	InputState
	WindowSize() (int, int)
	Refs() []ImageRef
	Folder() string
	ThumbnailSizeKey() string
	SortName() string
	IsFullscreen() bool
	ShowInfo() bool
	CurrentImage() *ebiten.Image
	CurrentIndex() int
	PreloadStats() PreloadStats
	OpenViewerAt(idx int)
}

// App is the ebiten.Game. It owns the screens, routes async results back to
// the UI thread, and implements the action surface the input layer drives.
// All state mutation happens in Update; goroutines only feed channels.
type App struct {
	store    *configStore
	config   Config
	nav      *Navigator
	engine   *Engine
	images   ImageManager
	thumbs   *ThumbnailCache
	watcher  *folderWatcher
	grid     *GridView
	viewer   *ViewerView
	input    *InputHandler
	mouse    MouseSettings

	folder         string
	lastGoodFolder string
	refs           []ImageRef
	archiveMode    bool
	sortMethod     int
	thumbSizeKey   string

	viewerOpen bool
	showInfo   bool
	fullscreen bool
	winW, winH int
	windowedW  int
	windowedH  int

	pickerCh     chan string
	pickerActive bool
	exiting      bool
}

func newApp(store *configStore, config Config, watcher *folderWatcher) *App {
	session := store.Session()

	a := &App{
		store:        store,
		config:       config,
		nav:          NewNavigator(),
		images:       NewImageManagerWithPreload(config.CacheSize, config.PreloadCount, config.PreloadEnabled),
		thumbs:       NewThumbnailCache(config.ThumbCacheSize),
		watcher:      watcher,
		grid:         NewGridView(),
		viewer:       NewViewerView(),
		mouse:        config.Mouse,
		sortMethod:   config.SortMethod,
		thumbSizeKey: session.ThumbnailSize,
		winW:         config.WindowWidth,
		winH:         config.WindowHeight,
		windowedW:    config.WindowWidth,
		windowedH:    config.WindowHeight,
		pickerCh:     make(chan string, 1),
	}
	a.engine = NewEngine(session.ZoomMode, store)

	a.nav.OnChange(func(idx int, ref ImageRef) {
		a.engine.ResetPan()
	})

	km := NewKeybindingManager(config.Keybindings)
	mm := NewMousebindingManager(GetDefaultMousebindings(), config.Mouse)
	a.input = NewInputHandler(a, a, km, mm)

	return a
}

// Update runs one frame: drain async results, dispatch input, update the
// active screen.
func (a *App) Update() error {
	if a.exiting {
		return ebiten.Termination
	}

	a.drainChannels()
	a.pollDrops()

	a.input.HandleInput()

	if a.viewerOpen {
		a.viewer.Update(a, a, a.engine, a.mouse)
	} else {
		a.grid.Update(a, a)
	}

	return nil
}

// drainChannels lands results produced off the UI thread: folder picker
// selections, watcher refresh signals and finished thumbnails.
func (a *App) drainChannels() {
	select {
	case folder := <-a.pickerCh:
		a.pickerActive = false
		if folder != "" {
			a.setFolder(folder)
		}
	default:
	}

	select {
	case <-a.watcher.Refresh():
		a.RefreshFolder()
	default:
	}

	a.thumbs.Drain()
}

// pollDrops accepts OS drag-and-drop. Dropped entries arrive as an fs.FS;
// the OS path is recoverable only when the backing file is an os.File, so
// anything else is ignored.
func (a *App) pollDrops() {
	files := ebiten.DroppedFiles()
	if files == nil {
		return
	}
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		logrus.Debugf("reading dropped files: %v", err)
		return
	}
	for _, entry := range entries {
		f, err := files.Open(entry.Name())
		if err != nil {
			continue
		}
		named, ok := f.(interface{ Name() string })
		if !ok {
			f.Close()
			continue
		}
		path := named.Name()
		f.Close()
		if !filepath.IsAbs(path) {
			continue
		}
		a.openPath(path)
		return
	}
}

// openPath routes a path from the command line or a drop: folders become the
// browsed folder, archives open as virtual folders, images open their parent
// folder with the viewer positioned on the file.
func (a *App) openPath(path string) {
	info, err := os.Stat(path)
	if err != nil {
		logrus.Warnf("cannot open %s: %v", path, err)
		return
	}
	switch {
	case info.IsDir():
		a.setFolder(path)
	case isArchiveExt(path):
		a.openArchive(path)
	case isSupportedExt(path):
		a.setFolder(filepath.Dir(path))
		if err := a.nav.OpenAt(a.refs, 0); err != nil {
			return
		}
		if err := a.nav.JumpToPath(path); err != nil {
			logrus.Warnf("dropped file not in listing: %s", path)
			return
		}
		a.openViewer()
	default:
		logrus.Warnf("unsupported file type: %s", path)
	}
}

// setFolder switches the browsed folder, falling back to the last known good
// folder and finally the default when the target is unusable. An empty
// listing from a valid folder is fine; only a bad path triggers fallback.
func (a *App) setFolder(folder string) {
	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		logrus.Warnf("invalid folder %s, falling back", folder)
		if a.lastGoodFolder != "" && a.lastGoodFolder != folder {
			a.setFolder(a.lastGoodFolder)
		} else {
			a.setFolder(defaultFolder())
		}
		return
	}

	a.folder = folder
	a.lastGoodFolder = folder
	a.archiveMode = false
	a.store.SetLastFolder(folder)
	a.refs = listImages(folder, listOptions{
		sortMethod: a.sortMethod,
		excludes:   compileExcludes(a.config.ExcludePatterns),
	})
	a.images.SetRefs(a.refs)
	a.grid.ResetScroll()
	a.closeViewer()

	if err := a.watcher.Watch(folder); err != nil {
		logrus.Warnf("cannot watch %s: %v", folder, err)
	}
}

// openArchive browses a zip/rar/7z archive like a folder. The watcher is
// pointed at the archive's parent so changes to the file are noticed.
func (a *App) openArchive(archivePath string) {
	refs, err := listArchiveImages(archivePath, a.sortMethod)
	if err != nil {
		logrus.Warnf("cannot open archive %s: %v", archivePath, err)
		return
	}
	a.folder = archivePath
	a.archiveMode = true
	a.refs = refs
	a.images.SetRefs(refs)
	a.grid.ResetScroll()
	a.closeViewer()

	if err := a.watcher.Watch(filepath.Dir(archivePath)); err != nil {
		logrus.Debugf("cannot watch %s: %v", filepath.Dir(archivePath), err)
	}
}

func (a *App) openViewer() {
	a.viewerOpen = true
	a.engine.ResetPan()
	a.images.StartPreload(a.nav.Index(), NavigationJump)
}

func (a *App) closeViewer() {
	a.viewerOpen = false
}

// viewerGeometry returns the live viewport and image dimensions for zoom
// operations, or ok=false when no image is showing.
func (a *App) viewerGeometry() (Viewport, int, int, bool) {
	img := a.CurrentImage()
	if img == nil {
		return Viewport{}, 0, 0, false
	}
	vp := a.viewer.viewport(a)
	return vp, img.Bounds().Dx(), img.Bounds().Dy(), true
}

// Layout implements ebiten.Game.
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	a.winW, a.winH = outsideWidth, outsideHeight
	if !a.fullscreen {
		a.windowedW, a.windowedH = outsideWidth, outsideHeight
	}
	return outsideWidth, outsideHeight
}

// Draw implements ebiten.Game.
func (a *App) Draw(screen *ebiten.Image) {
	if a.viewerOpen {
		a.viewer.Draw(screen, a, a.engine)
	} else {
		a.grid.Draw(screen, a, a.thumbs)
	}
}

// Shutdown stops background workers and persists the window size.
func (a *App) Shutdown() {
	a.store.SetWindowSize(a.windowedW, a.windowedH)
	a.images.StopPreload()
	a.thumbs.Stop()
	if err := a.watcher.Close(); err != nil {
		logrus.Debugf("closing watcher: %v", err)
	}
}

// InputAppState

func (a *App) ViewerActive() bool         { return a.viewerOpen }
func (a *App) WindowSize() (int, int)     { return a.winW, a.winH }
func (a *App) Refs() []ImageRef           { return a.refs }
func (a *App) Folder() string             { return a.folder }
func (a *App) ThumbnailSizeKey() string   { return a.thumbSizeKey }
func (a *App) IsFullscreen() bool         { return a.fullscreen }
func (a *App) ShowInfo() bool             { return a.showInfo }
func (a *App) CurrentIndex() int          { return a.nav.Index() }
func (a *App) PreloadStats() PreloadStats { return a.images.GetPreloadStats() }

func (a *App) SortName() string {
	return GetSortStrategy(a.sortMethod).Name()
}

func (a *App) CurrentImage() *ebiten.Image {
	if _, ok := a.nav.Current(); !ok {
		return nil
	}
	return a.images.Image(a.nav.Index())
}

// OpenViewerAt opens the viewer on the grid cell at idx.
func (a *App) OpenViewerAt(idx int) {
	if err := a.nav.OpenAt(a.refs, idx); err != nil {
		return
	}
	a.openViewer()
}

// InputActions

func (a *App) Exit() {
	a.exiting = true
}

// ChooseFolder opens the native directory picker on a goroutine; the result
// lands through pickerCh. A second request while one is open is ignored.
func (a *App) ChooseFolder() {
	if a.pickerActive {
		return
	}
	a.pickerActive = true
	start := a.folder
	if a.archiveMode {
		start = filepath.Dir(a.folder)
	}
	go func() {
		folder, err := dialog.Directory().Title("Choose image folder").SetStartDir(start).Browse()
		if err != nil {
			if err != dialog.ErrCancelled {
				logrus.Warnf("folder picker: %v", err)
			}
			folder = ""
		}
		a.pickerCh <- folder
	}()
}

// RefreshFolder rebuilds the listing from scratch and reconciles the
// navigator with it.
func (a *App) RefreshFolder() {
	if a.archiveMode {
		refs, err := listArchiveImages(a.folder, a.sortMethod)
		if err != nil {
			logrus.Warnf("cannot refresh archive %s: %v", a.folder, err)
			return
		}
		a.refs = refs
	} else {
		a.refs = listImages(a.folder, listOptions{
			sortMethod: a.sortMethod,
			excludes:   compileExcludes(a.config.ExcludePatterns),
		})
	}
	a.images.SetRefs(a.refs)
	if a.viewerOpen {
		a.nav.Replace(a.refs)
		if a.nav.Len() == 0 {
			a.closeViewer()
		}
	}
}

func (a *App) CycleThumbnailSize() {
	a.thumbSizeKey = nextThumbnailKey(a.thumbSizeKey)
	a.store.SetThumbnailSize(a.thumbSizeKey)
}

func (a *App) CycleSortMethod() {
	a.sortMethod = (a.sortMethod + 1) % len(GetAllSortStrategies())
	a.store.SetSortMethod(a.sortMethod)
	a.RefreshFolder()
}

func (a *App) ToggleInfo() {
	a.showInfo = !a.showInfo
}

func (a *App) ToggleFullscreen() {
	a.fullscreen = !a.fullscreen
	ebiten.SetFullscreen(a.fullscreen)
	if !a.fullscreen {
		ebiten.SetWindowSize(a.windowedW, a.windowedH)
	}
}

func (a *App) CloseViewer() {
	a.closeViewer()
}

func (a *App) NavigateNext() {
	if _, ok := a.nav.Next(); ok {
		a.images.StartPreload(a.nav.Index(), NavigationForward)
	}
}

func (a *App) NavigatePrevious() {
	if _, ok := a.nav.Prev(); ok {
		a.images.StartPreload(a.nav.Index(), NavigationBackward)
	}
}

func (a *App) ZoomIn() {
	if vp, iw, ih, ok := a.viewerGeometry(); ok {
		a.engine.ZoomIn(vp, iw, ih)
	}
}

func (a *App) ZoomOut() {
	if vp, iw, ih, ok := a.viewerGeometry(); ok {
		a.engine.ZoomOut(vp, iw, ih)
	}
}

func (a *App) FitWidth()     { a.engine.SetMode(ZoomFitWidth) }
func (a *App) FitHeight()    { a.engine.SetMode(ZoomFitHeight) }
func (a *App) ZoomOriginal() { a.engine.SetMode(ZoomOriginal) }

func (a *App) PanUp()    { a.pan(0, -panStep) }
func (a *App) PanDown()  { a.pan(0, panStep) }
func (a *App) PanLeft()  { a.pan(-panStep, 0) }
func (a *App) PanRight() { a.pan(panStep, 0) }

func (a *App) pan(dx, dy float64) {
	if vp, iw, ih, ok := a.viewerGeometry(); ok {
		a.engine.Pan(dx, dy, vp, iw, ih)
	}
}
