package scopefs

import "path"

// Resolve maps name into the subtree rooted at root. Paths use forward
// slashes on every platform, following the absfs convention.
//
// When locked is false the result is the ordinary join of root and name,
// which may land outside root if name contains enough ".." segments.
//
// When locked is true, name is treated as rooted and normalized before the
// join, so no sequence of ".." segments can climb above root. An
// out-of-bounds attempt is not an error: the result clamps to the root, and
// if the clamped path does not exist that surfaces later as an ordinary
// "not found" from the filesystem, not from Resolve.
//
// Resolve performs no filesystem access and never fails.
func Resolve(root, name string, locked bool) string {
	if locked {
		name = path.Clean("/" + name)
	}
	return path.Join(root, name)
}
