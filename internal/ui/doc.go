// Package ui is the terminal front end: a two-route shell (upload screen and
// 3D viewer) built on Bubble Tea.
//
// Core abstractions:
//   - View: a screen or overlay with its own model, update and view (Elm-style)
//   - Screen: a routed View that releases its timers and sessions on Unmount
//   - OverlayStack: popups (file chooser, pipeline log) that take input first
//   - KeyHandler: SPC leader sequences resolved through a KeybindRegistry
package ui
