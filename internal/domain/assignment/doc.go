// Package assignment classifies a before/after pair of event snapshots into
// exactly one Scenario and derives the follow-up actions the dispatcher must
// perform for it.
//
// Classification is pure and deterministic. Replaying the same write (for
// example under at-least-once trigger delivery, where before and after are
// identical) always yields NoOp, so redelivery never produces notifications.
package assignment
