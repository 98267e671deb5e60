package redisx

import "time"

const (
	// Idempotency create order: crm:idem:order:{Idempotency-Key} -> response body
	KeyIdemOrderCreate = "crm:idem:order:%s"

	// Lease job scheduler: crm:job:lock:{job} -> owner
	KeyJobLock = "crm:job:lock:%s"

	// Dedup event processing: crm:dedup:{service}:{event_id}
	KeyDedup = "crm:dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)
