package domain

import "time"

// BatchAction is what a submitted update batch does to its rows.
type BatchAction string

const (
	BatchRenew  BatchAction = "renew"
	BatchExpire BatchAction = "let-expire"
)

// Batch is one per-target update produced by partitioning a renewal review.
// Every row marked renew, and every eligible row marked let-expire, lands in
// exactly one batch keyed by (target id, owner flag, action).
type Batch struct {
	TargetID   string      `json:"target_id"`
	TargetName string      `json:"target_name,omitempty"`
	Kind       RowKind     `json:"kind"`
	IsOwner    bool        `json:"is_owner"`
	Action     BatchAction `json:"action"`
	SubjectIDs []string    `json:"subject_ids"`
	Rows       []*MembershipRow
}

// BatchResult records the outcome of one batch's update call. Batches settle
// independently; a submission can partially fail.
type BatchResult struct {
	Batch *Batch `json:"batch"`
	Error string `json:"error,omitempty"`
}

// OK reports whether the batch's update call succeeded.
func (r *BatchResult) OK() bool { return r.Error == "" }

// RenewalRecord is an append-only audit entry for one bulk renewal
// submission.
type RenewalRecord struct {
	ID           string    `json:"id" db:"id"`
	ActorEmail   string    `json:"actor_email" db:"actor_email"`
	Kind         RowKind   `json:"kind" db:"kind"`
	Reason       string    `json:"reason,omitempty" db:"reason"`
	BatchCount   int       `json:"batch_count" db:"batch_count"`
	FailedCount  int       `json:"failed_count" db:"failed_count"`
	RenewedRows  int       `json:"renewed_rows" db:"renewed_rows"`
	ExpiredRows  int       `json:"expired_rows" db:"expired_rows"`
	OverrideUsed bool      `json:"override_used" db:"override_used"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
