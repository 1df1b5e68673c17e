package main

// InputActions is the surface the input layer drives. The application
// implements it; bindings never touch application state directly.
type InputActions interface {
	Exit()
	ChooseFolder()
	RefreshFolder()
	CycleThumbnailSize()
	CycleSortMethod()
	ToggleInfo()
	ToggleFullscreen()

	// Viewer-only actions, guarded by InputState.ViewerActive.
	CloseViewer()
	NavigateNext()
	NavigatePrevious()
	ZoomIn()
	ZoomOut()
	FitWidth()
	FitHeight()
	ZoomOriginal()
	PanUp()
	PanDown()
	PanLeft()
	PanRight()
}

// InputState exposes the state the executor needs to gate actions.
type InputState interface {
	ViewerActive() bool
}

// ActionDefinition defines an action with its default keybindings, mouse
// bindings, description and whether it only applies while the viewer is open.
type ActionDefinition struct {
	Name         string
	Keys         []string
	MouseActions []string
	Description  string
	ViewerOnly   bool
}

// actionDefinitions contains all action definitions with default bindings.
var actionDefinitions = []ActionDefinition{
	{"exit", []string{"KeyQ"}, []string{}, "Quit application", false},
	{"choose_folder", []string{"KeyO"}, []string{}, "Choose folder to browse", false},
	{"refresh", []string{"F5", "Ctrl+KeyR"}, []string{}, "Rebuild the image listing", false},
	{"cycle_thumbnail_size", []string{"KeyT"}, []string{}, "Cycle thumbnail size (small/medium/large)", false},
	{"cycle_sort", []string{"Shift+KeyS"}, []string{}, "Cycle sort method (Lexical/Natural/Entry)", false},
	{"info", []string{"KeyI"}, []string{}, "Show/hide position overlay", false},
	{"fullscreen", []string{"Enter", "F11"}, []string{"DoubleLeftClick"}, "Toggle fullscreen", false},

	{"close_viewer", []string{"Escape"}, []string{}, "Close viewer, back to thumbnails", true},
	{"next", []string{"ArrowRight", "Space", "KeyN"}, []string{}, "Next image", true},
	{"previous", []string{"ArrowLeft", "Backspace", "KeyP"}, []string{}, "Previous image", true},

	{"zoom_in", []string{"Equal", "Shift+Equal"}, []string{}, "Zoom in one step", true},
	{"zoom_out", []string{"Minus"}, []string{}, "Zoom out one step", true},
	{"fit_width", []string{"KeyW"}, []string{}, "Fit image to viewport width", true},
	{"fit_height", []string{"KeyH"}, []string{}, "Fit image to viewport height", true},
	{"zoom_original", []string{"Key0"}, []string{}, "Show image at original size", true},

	{"pan_up", []string{"Shift+ArrowUp"}, []string{}, "Pan up", true},
	{"pan_down", []string{"Shift+ArrowDown"}, []string{}, "Pan down", true},
	{"pan_left", []string{"Shift+ArrowLeft"}, []string{}, "Pan left", true},
	{"pan_right", []string{"Shift+ArrowRight"}, []string{}, "Pan right", true},
}

// ActionExecutor provides centralized action execution logic shared by the
// keybinding and mouse binding managers.
type ActionExecutor struct {
	viewerOnly map[string]bool
}

// NewActionExecutor creates a new ActionExecutor instance
func NewActionExecutor() *ActionExecutor {
	viewerOnly := make(map[string]bool)
	for _, def := range actionDefinitions {
		if def.ViewerOnly {
			viewerOnly[def.Name] = true
		}
	}
	return &ActionExecutor{viewerOnly: viewerOnly}
}

// ExecuteAction executes the given action using the InputActions interface.
// Viewer-only actions are ignored while the thumbnail grid is showing.
func (ae *ActionExecutor) ExecuteAction(action string, inputActions InputActions, inputState InputState) bool {
	if ae.viewerOnly[action] && !inputState.ViewerActive() {
		return false
	}

	switch action {
	case "exit":
		inputActions.Exit()
	case "choose_folder":
		inputActions.ChooseFolder()
	case "refresh":
		inputActions.RefreshFolder()
	case "cycle_thumbnail_size":
		inputActions.CycleThumbnailSize()
	case "cycle_sort":
		inputActions.CycleSortMethod()
	case "info":
		inputActions.ToggleInfo()
	case "fullscreen":
		inputActions.ToggleFullscreen()
	case "close_viewer":
		inputActions.CloseViewer()
	case "next":
		inputActions.NavigateNext()
	case "previous":
		inputActions.NavigatePrevious()
	case "zoom_in":
		inputActions.ZoomIn()
	case "zoom_out":
		inputActions.ZoomOut()
	case "fit_width":
		inputActions.FitWidth()
	case "fit_height":
		inputActions.FitHeight()
	case "zoom_original":
		inputActions.ZoomOriginal()
	case "pan_up":
		inputActions.PanUp()
	case "pan_down":
		inputActions.PanDown()
	case "pan_left":
		inputActions.PanLeft()
	case "pan_right":
		inputActions.PanRight()
	default:
		return false
	}

	return true
}

// globalActionExecutor is the global instance of ActionExecutor used throughout the application
var globalActionExecutor = NewActionExecutor()

// GetActionDescriptions returns a map of action names to their descriptions
func GetActionDescriptions() map[string]string {
	descriptions := make(map[string]string)
	for _, action := range actionDefinitions {
		descriptions[action.Name] = action.Description
	}
	return descriptions
}

// GetDefaultKeybindings returns a map of action names to their default keybindings
func GetDefaultKeybindings() map[string][]string {
	keybindings := make(map[string][]string)
	for _, action := range actionDefinitions {
		keybindings[action.Name] = action.Keys
	}
	return keybindings
}

// GetDefaultMousebindings returns a map of action names to their default mouse bindings
func GetDefaultMousebindings() map[string][]string {
	mousebindings := make(map[string][]string)
	for _, action := range actionDefinitions {
		mousebindings[action.Name] = action.MouseActions
	}
	return mousebindings
}
