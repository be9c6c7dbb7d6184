// Package sentences reads and writes newline-delimited sentence files and
// extracts the English source sentences embedded in AMR release files.
package sentences
