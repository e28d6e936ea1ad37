// Package cli provides the terminal-facing pieces of stockportal: output
// rendering, prompts, progress spinners and user-friendly errors.
//
// # Output Formats
//
// Output renders results in one of four formats:
//   - table: kubectl-style plain columns, easy to pipe into grep or awk
//   - wide: like table, with every column the result offers
//   - json: indented JSON for programmatic consumption
//   - yaml: the same data as YAML
//
// Tables are built with go-pretty. Progress spinners (briandowns/spinner)
// are shown only when output is not quiet.
//
// # Errors
//
// Translate maps pipeline and portal errors to AuthRequiredError,
// AuthExpiredError and AuthFailedError, whose messages tell the user which
// command to run next.
//
// # Prompts
//
// Prompter reads usernames and passwords interactively. The readline
// implementation hides passwords as they are typed.
package cli
