package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Balance(ctx context.Context) error
	Upload(ctx context.Context) error
	Link(ctx context.Context, id string) error
	Info(ctx context.Context, id string) error
	List(ctx context.Context) error
	Packages(ctx context.Context) error
	Buy(ctx context.Context) error
	Store(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the filedrop CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Always:
//	  - help           — show available commands
//	  - upload         — share a file, printing its link
//	  - link <id>      — print the shareable link for a file
//	  - info <id>      — show a stored file's details
//	  - exit | quit    — leave the program
//
//	Not logged in:
//	  - register       — create an account
//	  - login          — authenticate
//
//	Logged in:
//	  - list           — list your uploads
//	  - balance        — show your coin balance
//	  - packages       — show the coin catalog
//	  - buy            — start a coin purchase
//	  - store          — print the store page address
//	  - logout         — log out
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("fd> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: upload, (l)ist, link, info, balance, packages, buy, store, logout, exit")
			} else {
				printlnFn("Available commands: upload, link, info, register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "upload":
			_ = a.Upload(ctx)

		case "link":
			if len(args) == 0 {
				printlnFn("Usage: link <id>")
				continue
			}
			_ = a.Link(ctx, args[0])

		case "info":
			if len(args) == 0 {
				printlnFn("Usage: info <id>")
				continue
			}
			_ = a.Info(ctx, args[0])

		case "l", "list":
			_ = a.List(ctx)

		case "balance":
			_ = a.Balance(ctx)

		case "packages":
			_ = a.Packages(ctx)

		case "buy":
			_ = a.Buy(ctx)

		case "store":
			_ = a.Store(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
