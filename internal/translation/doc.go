// Package translation machine-translates sentence files into English (or
// any target language) through a pretrained model backend. It includes a
// per-run translation cache and file persistence for translated sentences.
package translation
