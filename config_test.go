package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".imgsee.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	result := loadConfigFromPath(filepath.Join(t.TempDir(), "absent.json"))
	assert.False(t, result.HasError)
	assert.Equal(t, "Default", result.Status)
	assert.Equal(t, defaultWidth, result.Config.WindowWidth)
	assert.Equal(t, defaultThumbnailKey, result.Config.ThumbnailSize)
	assert.Equal(t, int(ZoomFitWidth), result.Config.ImageViewZoom)
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	path := writeConfig(t, `{not json`)
	result := loadConfigFromPath(path)
	assert.True(t, result.HasError)
	assert.Equal(t, "Error", result.Status)
	assert.Equal(t, defaultWidth, result.Config.WindowWidth)
}

func TestLoadConfigWindowValidation(t *testing.T) {
	tests := []struct {
		name           string
		configJSON     string
		expectedWidth  int
		expectedHeight int
	}{
		{
			name:           "Valid size",
			configJSON:     `{"window_width": 1000, "window_height": 800}`,
			expectedWidth:  1000,
			expectedHeight: 800,
		},
		{
			name:           "Width too small",
			configJSON:     `{"window_width": 200, "window_height": 600}`,
			expectedWidth:  defaultWidth,
			expectedHeight: 600,
		},
		{
			name:           "Height too small",
			configJSON:     `{"window_width": 800, "window_height": 100}`,
			expectedWidth:  800,
			expectedHeight: defaultHeight,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := loadConfigFromPath(writeConfig(t, tt.configJSON))
			assert.Equal(t, tt.expectedWidth, result.Config.WindowWidth)
			assert.Equal(t, tt.expectedHeight, result.Config.WindowHeight)
		})
	}
}

func TestLoadConfigZoomEncoding(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected int
	}{
		{"Fit width", "0", 0},
		{"Fit height", "-1", -1},
		{"Original", "-2", -2},
		{"Percent", "150", 150},
		{"Above range clamps on read", "700", 500},
		{"Below range clamps on read", "5", 10},
		{"Garbage clamps on read", "-33", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := loadConfigFromPath(writeConfig(t, `{"image_view_zoom": `+tt.value+`}`))
			assert.Equal(t, tt.expected, result.Config.ImageViewZoom)
		})
	}
}

func TestLoadConfigFieldValidation(t *testing.T) {
	result := loadConfigFromPath(writeConfig(t, `{
		"thumbnail_size": "gigantic",
		"sort_method": 9,
		"cache_size": 0,
		"preload_count": 99
	}`))
	assert.Equal(t, defaultThumbnailKey, result.Config.ThumbnailSize)
	assert.Equal(t, SortLexical, result.Config.SortMethod)
	assert.Equal(t, 16, result.Config.CacheSize)
	assert.Equal(t, 16, result.Config.PreloadCount)
}

func TestLoadConfigKeybindingConflict(t *testing.T) {
	result := loadConfigFromPath(writeConfig(t, `{
		"keybindings": {
			"next": ["KeyQ"],
			"exit": ["KeyQ"]
		}
	}`))
	assert.Equal(t, "Warning", result.Status)
	assert.NotEmpty(t, result.Warnings)
	assert.Equal(t, GetDefaultKeybindings(), result.Config.Keybindings)
}

func TestLoadConfigKeybindingMergeDefaults(t *testing.T) {
	result := loadConfigFromPath(writeConfig(t, `{
		"keybindings": {
			"exit": ["KeyX"]
		}
	}`))
	require.Equal(t, "OK", result.Status)
	assert.Equal(t, []string{"KeyX"}, result.Config.Keybindings["exit"])
	assert.Equal(t, GetDefaultKeybindings()["next"], result.Config.Keybindings["next"],
		"actions missing from the file get their defaults")
}

func TestLoadConfigMouseSettings(t *testing.T) {
	// Zero values fall back to defaults; keys from older config files that
	// are no longer part of MouseSettings are simply ignored
	result := loadConfigFromPath(writeConfig(t, `{
		"mouse": {
			"wheel_sensitivity": 0,
			"double_click_time": 0,
			"drag_threshold": 5,
			"drag_sensitivity": 2.0,
			"enable_mouse": true
		}
	}`))
	require.False(t, result.HasError)
	assert.Equal(t, "OK", result.Status)
	assert.Equal(t, 1.0, result.Config.Mouse.WheelSensitivity)
	assert.Equal(t, 300, result.Config.Mouse.DoubleClickTime)
	assert.True(t, result.Config.Mouse.EnableMouse)
}

func TestValidateKeyString(t *testing.T) {
	valid := getValidKeyNames()

	assert.NoError(t, validateKeyString("KeyA", valid))
	assert.NoError(t, validateKeyString("Shift+ArrowUp", valid))
	assert.NoError(t, validateKeyString("Ctrl+KeyR", valid))
	assert.NoError(t, validateKeyString("F5", valid))
	assert.NoError(t, validateKeyString("F11", valid))
	assert.Error(t, validateKeyString("KeyÆ", valid))
	assert.Error(t, validateKeyString("Hyper+KeyA", valid))
}

func TestThumbnailSizeHelpers(t *testing.T) {
	assert.Equal(t, 100, thumbnailSizePx("small"))
	assert.Equal(t, 150, thumbnailSizePx("medium"))
	assert.Equal(t, 330, thumbnailSizePx("large"))
	assert.Equal(t, 150, thumbnailSizePx("bogus"), "unknown keys fall back to medium")

	assert.Equal(t, "medium", nextThumbnailKey("small"))
	assert.Equal(t, "large", nextThumbnailKey("medium"))
	assert.Equal(t, "small", nextThumbnailKey("large"))
	assert.Equal(t, defaultThumbnailKey, nextThumbnailKey("bogus"))
}

func TestConfigStoreSessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".imgsee.json")
	store := newConfigStore(path, defaultConfig())

	store.SetLastFolder("/pics")
	store.SetThumbnailSize("large")
	store.SetZoomMode(zoomPercent(150))

	// Every setter saves synchronously; a fresh load sees the new session
	result := loadConfigFromPath(path)
	require.False(t, result.HasError)
	reloaded := newConfigStore(path, result.Config).Session()
	assert.Equal(t, "/pics", reloaded.LastFolder)
	assert.Equal(t, "large", reloaded.ThumbnailSize)
	assert.Equal(t, zoomPercent(150), reloaded.ZoomMode)
}

func TestConfigStoreRejectsUnknownThumbnailSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".imgsee.json")
	store := newConfigStore(path, defaultConfig())

	store.SetThumbnailSize("gigantic")
	assert.Equal(t, defaultThumbnailKey, store.Session().ThumbnailSize)
}

func TestSaveSkipsInvalidWindowSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".imgsee.json")
	cfg := defaultConfig()
	cfg.WindowWidth = 50
	saveConfigToPath(cfg, path)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
