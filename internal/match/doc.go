// Package match finds the closest known name to a misspelt one, so that
// mapping errors can suggest what was probably meant.
package match
