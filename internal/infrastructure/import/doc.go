// Package csvimport parses header-keyed CSV files and validates their rows
// against per-column rules. Row failures are collected as RowError values so
// an import can report every bad row instead of stopping at the first.
package csvimport
