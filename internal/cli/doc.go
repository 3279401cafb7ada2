// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates flags, PROCGRID_* environment variables and an optional .env
// file into the application's internal configuration and dispatches to the
// build, dump, simulate, serve and conditions commands.
package cli
