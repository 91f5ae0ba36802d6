// Package store reads the family calendar data the dispatcher needs and removes
// stale push destinations.
//
// Two backends are provided: Firestore, matching the document layout the mobile
// clients write, and a SQL backend (SQLite, PostgreSQL or MySQL) for local runs
// and self-hosted deployments.
package store
