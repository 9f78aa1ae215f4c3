// Package repl provides the interactive mode of respkv-cli.
//
// Each input line is split into arguments with redis-cli quoting rules
// (SplitArgs) and handed to an Executor. The REPL itself handles exit,
// quit, help and history. History is kept across sessions in
// ~/.respkv/history; AUTH lines are never recorded.
package repl
