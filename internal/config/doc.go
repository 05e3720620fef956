// Package config handles loading and parsing the railcab configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/railcab/config.toml (default)
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing/empty, use defaults
//
// # TOML Format
//
//	locomotive_directory = "http://127.0.0.1:8095/locomotive"
//	switch_directory = "http://127.0.0.1:8095/switch"
//	poll_interval = "2s"
//	directory_interval = "10s"
//	request_timeout = "5s"
//	workers = 4
//	conflict_retries = 1
//	session = "0s"
//	log_file = "~/.local/state/railcab/railcab.log"
//	log_level = "info"
//
// Durations use Go duration syntax. A session of zero disables the control
// countdown. Tilde expansion is applied to log_file.
//
// # Error Handling
//
// Load returns errors for path expansion failures, unreadable files, invalid
// TOML, unparsable or negative durations and unknown log levels. A missing
// file is not an error.
package config
