// Package prompt provides the yes/no decision used before a server is installed.
//
// Terminal asks on an interactive console; Always answers without asking and
// backs the --yes flag.
package prompt
