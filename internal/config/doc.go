// Package config defines the notifier settings and provides helpers to load,
// validate and save them in YAML format.
//
// Validate fills defaults for every omitted field, so a minimal file only
// needs the drivers it changes from the local defaults (sqlite store, log
// push transport and log task queue).
package config
