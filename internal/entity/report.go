package entity

// IngestReport summarizes one ingestion pass over a tabular source.
type IngestReport struct {
	Processed int
	Skipped   int
	Errors    int
}

// Merge folds another report into this one.
func (r *IngestReport) Merge(other IngestReport) {
	r.Processed += other.Processed
	r.Skipped += other.Skipped
	r.Errors += other.Errors
}
