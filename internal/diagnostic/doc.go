// Package diagnostic collects structured errors, warnings and notes found
// while checking a mapping file, so that every problem can be reported in
// one pass instead of stopping at the first.
package diagnostic
