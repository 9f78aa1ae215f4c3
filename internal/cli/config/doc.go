// Package config loads the respkv-cli configuration file
// (~/.respkv/cli.yaml): the default server and output format, and named
// connection profiles.
package config
