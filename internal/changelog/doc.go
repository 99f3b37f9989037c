// Package changelog reads markdown CHANGELOG files produced by changeset
// version bumps.
//
// This package implements:
//   - Parsing a changelog into a flat list of block nodes with heading depths
//   - Extracting the section that belongs to a single version heading
//   - Classifying a section by the highest release level it mentions
//   - Terminal formatting of an extracted section
//
// Extraction never fails: when the version heading is missing, the whole
// document is returned with Found set to false so callers can decide whether
// that is fatal.
package changelog
