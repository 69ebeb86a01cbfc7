package ui

import (
	"fmt"
	"strings"
)

// Route identifies one of the two screens.
type Route int

const (
	RouteUpload Route = iota
	RouteRender
)

// Routes lists every route in header order.
var Routes = []Route{RouteUpload, RouteRender}

func (r Route) String() string {
	switch r {
	case RouteUpload:
		return "Upload"
	case RouteRender:
		return "3D Render"
	default:
		return "Unknown"
	}
}

// Path is the route's address as shown in the header.
func (r Route) Path() string {
	switch r {
	case RouteRender:
		return "/render"
	default:
		return "/"
	}
}

// ParseRoute accepts a route name ("upload", "render") or path ("/", "/render").
func ParseRoute(s string) (Route, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "upload", "/":
		return RouteUpload, nil
	case "render", "/render":
		return RouteRender, nil
	default:
		return RouteUpload, fmt.Errorf("unknown route %q", s)
	}
}
