package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Window size constants
const (
	defaultWidth  = 800
	defaultHeight = 600
	minWidth      = 400
	minHeight     = 300
)

// Thumbnail size selection: a fixed enumeration of long-edge pixel sizes.
var thumbnailSizes = map[string]int{
	"small":  100,
	"medium": 150,
	"large":  330,
}

// thumbnailSizeOrder is the cycle order for the size toggle.
var thumbnailSizeOrder = []string{"small", "medium", "large"}

const defaultThumbnailKey = "medium"

func thumbnailSizePx(key string) int {
	if px, ok := thumbnailSizes[key]; ok {
		return px
	}
	return thumbnailSizes[defaultThumbnailKey]
}

func nextThumbnailKey(key string) string {
	for i, k := range thumbnailSizeOrder {
		if k == key {
			return thumbnailSizeOrder[(i+1)%len(thumbnailSizeOrder)]
		}
	}
	return defaultThumbnailKey
}

type Config struct {
	WindowWidth     int                 `json:"window_width"`
	WindowHeight    int                 `json:"window_height"`
	LastFolder      string              `json:"last_folder"`
	ThumbnailSize   string              `json:"thumbnail_size"`
	ImageViewZoom   int                 `json:"image_view_zoom"` // 0=fit width, -1=fit height, -2=original, else percent
	SortMethod      int                 `json:"sort_method"`
	CacheSize       int                 `json:"cache_size"`
	ThumbCacheSize  int                 `json:"thumb_cache_size"`
	PreloadEnabled  bool                `json:"preload_enabled"`
	PreloadCount    int                 `json:"preload_count"`
	ExcludePatterns []string            `json:"exclude_patterns"`
	Keybindings     map[string][]string `json:"keybindings"`
	Mouse           MouseSettings       `json:"mouse"`
}

// ConfigLoadResult contains the result of loading configuration
type ConfigLoadResult struct {
	Config   Config
	HasError bool
	Warnings []string
	Status   string // "OK", "Default", "Warning", "Error"
}

func getConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "imgsee.json"
	}
	return filepath.Join(homeDir, ".imgsee.json")
}

// defaultFolder is the folder shown when no persisted folder survives:
// the desktop when it exists, otherwise the home directory.
func defaultFolder() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	desktop := filepath.Join(homeDir, "Desktop")
	if info, err := os.Stat(desktop); err == nil && info.IsDir() {
		return desktop
	}
	return homeDir
}

func defaultConfig() Config {
	return Config{
		WindowWidth:    defaultWidth,
		WindowHeight:   defaultHeight,
		LastFolder:     "",
		ThumbnailSize:  defaultThumbnailKey,
		ImageViewZoom:  int(ZoomFitWidth),
		SortMethod:     SortLexical,
		CacheSize:      16,
		ThumbCacheSize: 512,
		PreloadEnabled: true,
		PreloadCount:   4,
		Keybindings:    GetDefaultKeybindings(),
		Mouse:          GetDefaultMouseSettings(),
	}
}

func loadConfig() ConfigLoadResult {
	return loadConfigFromPath(getConfigPath())
}

func loadConfigFromPath(configPath string) ConfigLoadResult {
	config := defaultConfig()
	result := ConfigLoadResult{
		Config:   config,
		HasError: false,
		Warnings: []string{},
		Status:   "OK",
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		// Config file not found is not an error - use defaults
		result.Status = "Default"
		return result
	}

	if err := json.Unmarshal(data, &config); err != nil {
		logrus.Warnf("invalid config file %s, using defaults: %v", configPath, err)
		result.HasError = true
		result.Status = "Error"
		result.Warnings = append(result.Warnings, fmt.Sprintf("Invalid config file: %v", err))
		return result
	}

	// Validate minimum size
	if config.WindowWidth < minWidth {
		config.WindowWidth = defaultWidth
	}
	if config.WindowHeight < minHeight {
		config.WindowHeight = defaultHeight
	}

	// Validate thumbnail size key
	if _, ok := thumbnailSizes[config.ThumbnailSize]; !ok {
		config.ThumbnailSize = defaultThumbnailKey
	}

	// Clamp persisted zoom on read; the three sentinels pass through
	config.ImageViewZoom = int(parseZoomMode(config.ImageViewZoom))

	// Validate sort method
	if config.SortMethod < SortLexical || config.SortMethod > SortEntryOrder {
		config.SortMethod = SortLexical
	}

	// Validate cache sizes
	if config.CacheSize < 1 {
		config.CacheSize = 16
	} else if config.CacheSize > 64 {
		config.CacheSize = 64
	}
	if config.ThumbCacheSize < 16 {
		config.ThumbCacheSize = 512
	}

	// Validate preload count (minimum 1, maximum 16)
	if config.PreloadCount < 1 {
		config.PreloadCount = 4
	} else if config.PreloadCount > 16 {
		config.PreloadCount = 16
	}

	// Validate keybindings - ensure defaults exist for missing actions
	if config.Keybindings == nil {
		config.Keybindings = GetDefaultKeybindings()
	} else {
		defaults := GetDefaultKeybindings()
		for action, defaultKeys := range defaults {
			if _, exists := config.Keybindings[action]; !exists {
				config.Keybindings[action] = defaultKeys
			}
		}

		if err := validateKeybindings(config.Keybindings); err != nil {
			logrus.Warnf("invalid keybindings, using defaults: %v", err)
			config.Keybindings = GetDefaultKeybindings()
			result.Status = "Warning"
			result.Warnings = append(result.Warnings, fmt.Sprintf("Keybinding errors: %v", err))
		}
	}

	if config.Mouse.WheelSensitivity <= 0 {
		config.Mouse.WheelSensitivity = 1.0
	}
	if config.Mouse.DoubleClickTime <= 0 {
		config.Mouse.DoubleClickTime = 300
	}

	result.Config = config
	return result
}

func saveConfigToPath(config Config, configPath string) {
	// Don't save if size is too small
	if config.WindowWidth < minWidth || config.WindowHeight < minHeight {
		logrus.Warnf("not saving config with invalid window size: %dx%d",
			config.WindowWidth, config.WindowHeight)
		return
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		logrus.Errorf("failed to marshal config: %v", err)
		return
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		logrus.Errorf("failed to save config to %s: %v", configPath, err)
	}
}

// validateKeybindings checks key formats and detects conflicts.
func validateKeybindings(keybindings map[string][]string) error {
	keyToAction := make(map[string]string)
	validKeys := getValidKeyNames()

	for action, keys := range keybindings {
		for _, keyStr := range keys {
			if err := validateKeyString(keyStr, validKeys); err != nil {
				return fmt.Errorf("invalid key '%s' for action '%s': %v", keyStr, action, err)
			}
			if existingAction, exists := keyToAction[keyStr]; exists {
				return fmt.Errorf("key conflict: '%s' is bound to both '%s' and '%s'", keyStr, existingAction, action)
			}
			keyToAction[keyStr] = action
		}
	}

	return nil
}

func validateKeyString(keyStr string, validKeys map[string]bool) error {
	parts := strings.Split(keyStr, "+")
	if len(parts) == 0 {
		return fmt.Errorf("empty key string")
	}

	keyName := parts[len(parts)-1]
	if !validKeys[keyName] {
		return fmt.Errorf("unknown key: %s", keyName)
	}

	for i := 0; i < len(parts)-1; i++ {
		modifier := strings.ToLower(parts[i])
		if modifier != "shift" && modifier != "ctrl" && modifier != "alt" {
			return fmt.Errorf("unknown modifier: %s", parts[i])
		}
	}

	return nil
}

func getValidKeyNames() map[string]bool {
	valid := make(map[string]bool)
	for name := range getKeyMapping() {
		valid[name] = true
	}
	return valid
}

// Session is the persisted state consulted at startup and written back on
// every user-initiated change.
type Session struct {
	LastFolder    string
	ThumbnailSize string
	ZoomMode      ZoomMode
}

// SettingsStore is the persistence port for session state: read once at
// startup, written on change. Tests substitute an in-memory fake.
type SettingsStore interface {
	Session() Session
	SetLastFolder(folder string)
	SetThumbnailSize(key string)
	SetZoomMode(mode ZoomMode)
}

// configStore persists the session inside the JSON config file, saving
// synchronously on every change so the state outlives the process.
type configStore struct {
	path string
	cfg  Config
}

func newConfigStore(path string, cfg Config) *configStore {
	return &configStore{path: path, cfg: cfg}
}

func (s *configStore) Session() Session {
	key := s.cfg.ThumbnailSize
	if _, ok := thumbnailSizes[key]; !ok {
		key = defaultThumbnailKey
	}
	return Session{
		LastFolder:    s.cfg.LastFolder,
		ThumbnailSize: key,
		ZoomMode:      parseZoomMode(s.cfg.ImageViewZoom),
	}
}

func (s *configStore) SetLastFolder(folder string) {
	s.cfg.LastFolder = folder
	s.save()
}

func (s *configStore) SetThumbnailSize(key string) {
	if _, ok := thumbnailSizes[key]; !ok {
		return
	}
	s.cfg.ThumbnailSize = key
	s.save()
}

func (s *configStore) SetZoomMode(mode ZoomMode) {
	s.cfg.ImageViewZoom = int(mode)
	s.save()
}

func (s *configStore) SetSortMethod(method int) {
	s.cfg.SortMethod = method
	s.save()
}

func (s *configStore) SetWindowSize(w, h int) {
	s.cfg.WindowWidth = w
	s.cfg.WindowHeight = h
	s.save()
}

func (s *configStore) save() {
	saveConfigToPath(s.cfg, s.path)
}
