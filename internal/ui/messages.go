package ui

import "neuralscan/internal/catalog"

// NavigateMsg unmounts the current screen and mounts a fresh instance of Route.
type NavigateMsg struct {
	Route Route
}

// DismissModalMsg pops the top overlay.
type DismissModalMsg struct{}

// ShowPipelineLogMsg opens the pipeline log overlay (SPC l).
type ShowPipelineLogMsg struct{}

// ShowFileChooserMsg opens the DICOM file chooser overlay.
type ShowFileChooserMsg struct{}

// FileChosenMsg is sent by the file chooser for every file the user picks.
// The chooser stays open so several files can be chosen in a row.
type FileChosenMsg struct {
	Path string
}

// CatalogChangedMsg is sent when the catalog file changed on disk.
type CatalogChangedMsg struct{}

// figuresLoadedMsg carries the pipeline figures for the upload screen.
type figuresLoadedMsg struct {
	Figures []catalog.Figure
	Err     error
}

// slicesLoadedMsg carries the CT slice gallery for the viewer.
type slicesLoadedMsg struct {
	Slices []catalog.Slice
	Err    error
}

// frameMsg is one display refresh tick of a viewer session.
type frameMsg struct {
	SessionID uint64
}
