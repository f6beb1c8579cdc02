package main

import "errors"

// newDefaultBackend constructs the Backend this build runs against. The
// real layer-shell/registry protocol client is the external collaborator
// spec.md §1 scopes out of this repository (see DESIGN.md): nothing in the
// retrieved pack offers a pure-Go zwlr_layer_shell_v1 binding that can be
// imported here without generated C protocol headers this repository does
// not carry. This is the one seam where a real implementation plugs in —
// compositor_loop.go depends only on the Backend interface, not on this
// function.
func newDefaultBackend() (Backend, error) {
	return nil, errors.New("no layer-shell backend wired into this build; implement Backend against the target compositor's protocol library")
}
