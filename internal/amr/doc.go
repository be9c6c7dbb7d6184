// Package amr reads and writes Abstract Meaning Representation graphs in
// PENMAN notation and wraps the sentence-to-graph parsers used by the
// pipeline.
//
// A graph file holds one block per sentence, blocks separated by a blank
// line. A sentence that could not be parsed is written as Placeholder so
// the block count of a graph file always equals the sentence count of its
// input.
package amr
