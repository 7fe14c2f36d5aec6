package constants

// JobStatus is the canonical status for rows in extract_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued  JobStatus = "QUEUED"  // accepted, waiting for a worker
	JobStatusRunning JobStatus = "RUNNING" // in progress
	JobStatusDone    JobStatus = "DONE"    // DocumentResult stored
	JobStatusFailed  JobStatus = "FAILED"  // document could not be loaded
)

// ResultStatus is DocumentResult.Status.
type ResultStatus string

const (
	ResultStatusSuccess ResultStatus = "success"
	ResultStatusFailed  ResultStatus = "failed"
)

// Outcome tells complete, partial and total page failure apart.
type Outcome string

const (
	OutcomeComplete Outcome = "complete" // every processed page succeeded
	OutcomePartial  Outcome = "partial"  // at least one page failed, at least one succeeded
	OutcomeFailed   Outcome = "failed"   // no processed page succeeded
)
