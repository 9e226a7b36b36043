// Package normalisers provides implementations of the Normaliser interface
// for the corpus formats. Each normaliser knows how to extract text
// content from a specific MIME type.
//
// Normalisers are registered with the Registry at startup.
package normalisers
