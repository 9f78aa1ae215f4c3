// Package output renders respkv-cli results.
//
//   - text: redis-cli style replies, FIELD/VALUE tables for reports
//   - json: indented JSON
//   - yaml: YAML via gopkg.in/yaml.v3
//
// RESP replies are converted to plain values before JSON or YAML
// encoding: bulk and simple strings become strings, integers numbers,
// nulls null, arrays lists and error replies {"error": "..."}.
package output
