// Package notification defines push payloads and the composer that renders
// them for every notification kind.
//
// A payload belongs to one of two delivery classes: visible alerts carry a
// title, body, sound and badge; silent background syncs carry only a data
// block and must be delivered without a user-facing alert. Transports read
// the class through Payload.Class to pick delivery priority.
//
// The data block is a stable contract with the mobile client: it always
// holds a "type", the family and event identifiers and an "action" hint.
package notification
