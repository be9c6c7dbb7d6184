// Package processor contains the pipeline logic: translating the dataset's
// sentence files to English, scoring the translations, parsing them into
// AMR graphs, unifying graph files per language and scoring them with
// smatch. It coordinates all other packages and records every metric in
// the evaluation report, the run ledger and the metrics registry.
package processor
