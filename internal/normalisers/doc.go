// Package normalisers provides implementations of the Normaliser interface
// for the upload formats the generator accepts. Each normaliser knows how
// to extract text content from a specific MIME type.
//
// The Registry dispatches uploads to the highest-priority normaliser for
// their MIME type; NewDefaultRegistry wires up the built-in set.
package normalisers
