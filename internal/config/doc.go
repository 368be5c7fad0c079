// Package config provides configuration structures and utilities for stegscan.
// It defines the scan options populated from CLI flags, the optional YAML
// configuration file, and the XDG directories used for artifacts and the
// report archive.
package config
