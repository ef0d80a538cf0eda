// Package service contains the three task producers (insight generation,
// notification dispatch, and wearable sync) and the historical rate
// limiter the notification producer enforces. Each producer validates its
// subject against the domain store, applies its own throttling rule, and
// ends in a single idempotent enqueue.
package service
