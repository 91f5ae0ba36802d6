// Package calendar contains the scheduling entities the notifier reads:
// events, confirmations, users with their push destinations and
// notification preferences, families and children.
//
// The types are plain values without storage or wire tags; repositories and
// transports convert to and from them. Clone helpers avoid leaking internal
// references between the classifier, composer and store fakes.
package calendar
