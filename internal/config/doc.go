// Package config defines the bootstrap settings used by the endstone binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Every field has a default, so the settings file is optional.
package config
