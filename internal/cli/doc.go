// Package cli provides the interactive filedrop command-line client.
//
// It wires configuration, local storage, and the account, file, coin and
// checkout services behind an interactive REPL. Typical flow: upload a file,
// get back a shareable link, and buy coins in the browser when a file is over
// the free limit.
//
// Key features:
//   - Register / Login / Logout against the local account store
//   - Upload files and print shareable links
//   - List uploads, inspect records, show links again
//   - Coin balance, coin catalog, and hosted checkout initiation
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
