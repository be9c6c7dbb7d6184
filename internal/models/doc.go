// Package models lists the OpenAI models available to an API key, grouped
// by what the pipeline can use them for: chat models translate sentences
// and parse AMR, embedding models score translations.
package models
