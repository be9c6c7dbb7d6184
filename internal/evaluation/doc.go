// Package evaluation scores machine translations against English gold
// sentences with sentence-level BLEU and the cosine similarity of sentence
// embeddings, and appends the results to the evaluation log.
package evaluation
