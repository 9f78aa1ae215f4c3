// Package buildinfo provides build information for respkv.
//
// Both binaries print it for --version, and the admin HTTP status
// endpoint reports the version.
package buildinfo
