package dedupe

import "github.com/okian/auscult/internal/domain/vocab"

// Bucket names an audit bucket.
type Bucket string

// Audit buckets.
const (
	BucketSystem    Bucket = "system"
	BucketPromotion Bucket = "promotion"
	BucketGeneric   Bucket = "generic"
)

func bucketOf(b vocab.Blacklist) Bucket {
	switch b {
	case vocab.BlacklistSystem:
		return BucketSystem
	case vocab.BlacklistPromotion:
		return BucketPromotion
	default:
		return BucketGeneric
	}
}

// AuditEntry records one rejected or rerouted event for human review.
type AuditEntry struct {
	TS        int64   `json:"ts"`
	Outcome   Outcome `json:"outcome"`
	Reason    string  `json:"reason"`
	Term      string  `json:"term,omitempty"`
	Text      string  `json:"text"`
	Identity  string  `json:"identity,omitempty"`
	SourceApp string  `json:"sourceApp,omitempty"`
	RawKind   string  `json:"rawKind"`
}

// Audit is a snapshot of the three buckets, oldest entry first.
type Audit struct {
	System    []AuditEntry `json:"system"`
	Promotion []AuditEntry `json:"promotion"`
	Generic   []AuditEntry `json:"generic"`
}

// ring keeps the newest capacity entries.
type ring struct {
	entries []AuditEntry
	next    int
	full    bool
}

func (r *ring) add(e AuditEntry, capacity int) {
	if capacity <= 0 {
		return
	}
	if len(r.entries) < capacity {
		r.entries = append(r.entries, e)
		return
	}
	r.entries[r.next] = e
	r.next = (r.next + 1) % capacity
	r.full = true
}

func (r *ring) snapshot() []AuditEntry {
	out := make([]AuditEntry, 0, len(r.entries))
	if !r.full {
		return append(out, r.entries...)
	}
	out = append(out, r.entries[r.next:]...)
	return append(out, r.entries[:r.next]...)
}

type auditLog struct {
	capacity int
	buckets  map[Bucket]*ring
}

func newAuditLog(capacity int) *auditLog {
	return &auditLog{
		capacity: capacity,
		buckets: map[Bucket]*ring{
			BucketSystem:    {},
			BucketPromotion: {},
			BucketGeneric:   {},
		},
	}
}

func (a *auditLog) record(b Bucket, e AuditEntry) {
	r, ok := a.buckets[b]
	if !ok {
		r = a.buckets[BucketGeneric]
	}
	r.add(e, a.capacity)
}

func (a *auditLog) snapshot() Audit {
	return Audit{
		System:    a.buckets[BucketSystem].snapshot(),
		Promotion: a.buckets[BucketPromotion].snapshot(),
		Generic:   a.buckets[BucketGeneric].snapshot(),
	}
}
