// Package scopefs provides jailed views of any absfs.FileSystem. A view
// confines every relative path beneath a fixed root directory, optionally
// "locked" so that `..` escapes are clamped to the root instead of passing
// through, and layers an optional read cache on top that validates entries
// against file modification times and coalesces concurrent reads of the
// same file into a single underlying read.
package scopefs
