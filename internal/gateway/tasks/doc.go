// Package tasks schedules delayed HTTP callbacks, used to escalate events that
// are still unassigned a day after they were created.
package tasks
