// Package operations provides the operation scripts bundled with lxcrun.
package operations

import "embed"

// Scripts contains the bundled operation scripts. They are installed into
// the operations directory with "lxcrun operations --install".
//
//go:embed *.sh
var Scripts embed.FS
