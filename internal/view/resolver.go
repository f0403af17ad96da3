package view

import (
	"path"
)

// Bundled resource names resolved for every render.
const (
	scriptName     = "screencast.bundle.js"
	stylesheetName = "screencast.css"
	iconFontName   = "codicon.css"
)

// Resolver converts bundled resource names into URLs the panel page is
// allowed to load. Resources live under the install root on disk and are
// served under the mount path.
type Resolver struct {
	root  string
	mount string
}

// NewResolver creates a Resolver for resources under root, served at mount.
func NewResolver(root, mount string) *Resolver {
	return &Resolver{root: root, mount: mount}
}

// Root returns the install root directory the resources are read from.
func (r *Resolver) Root() string {
	return r.root
}

// URI resolves a bundled resource name to its public URL.
func (r *Resolver) URI(name string) string {
	return path.Join(r.mount, name)
}

// ScriptURI returns the URL of the bundled panel script.
func (r *Resolver) ScriptURI() string {
	return r.URI(scriptName)
}

// StylesheetURI returns the URL of the panel stylesheet.
func (r *Resolver) StylesheetURI() string {
	return r.URI(stylesheetName)
}

// IconFontURI returns the URL of the icon-font stylesheet.
func (r *Resolver) IconFontURI() string {
	return r.URI(iconFontName)
}
