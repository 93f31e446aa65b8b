// Package config holds the session configuration and its setters.
//
// A Session owns the Config values. Every change goes through a named
// setter that validates the value, stores it, and pushes the matching
// presentation or editor side effect before returning. A rejected value
// returns a *Error and leaves both the stored value and the presentation
// untouched.
//
// # Sub-packages
//
//   - loader: TOML, YAML and environment variable loading into key maps
//   - notify: change notification for applied settings
//   - watcher: debounced reload of configuration files
//
// File and environment configuration reach the session through
// Session.Apply, which routes each key through the same setters.
package config
