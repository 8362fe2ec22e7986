package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = func(s string) { fmt.Println(s) }

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isUnlocked(ctx context.Context) bool
	Setup(ctx context.Context) error
	Unlock(ctx context.Context) error
	Lock(ctx context.Context) error
	Add(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context) error
	Rm(ctx context.Context) error
	Purge(ctx context.Context) error
	Events(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the vault CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Locked:
//	  - help           — show available commands
//	  - setup          — enroll a PIN (first run)
//	  - unlock         — open the vault
//	  - exit | quit    — leave the program
//
//	Unlocked:
//	  - help           — show available commands
//	  - add            — save a credential
//	  - list           — list records
//	  - show           — show a single record (interactive id prompt)
//	  - rm             — delete a record
//	  - purge          — drop records that fail decryption
//	  - events         — show recent vault activity
//	  - lock           — close the vault
//	  - exit | quit    — leave the program
//
// Errors returned by command handlers are logged by the handlers themselves;
// the loop stays resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("pv> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isUnlocked(ctx) {
				printlnFn("Available commands: add, list, show, rm, purge, events, lock, exit")
			} else {
				printlnFn("Available commands: setup, unlock, exit")
			}
		case "setup":
			_ = a.Setup(ctx)
		case "unlock":
			_ = a.Unlock(ctx)
		case "lock":
			_ = a.Lock(ctx)
		case "add":
			_ = a.Add(ctx)
		case "list", "l":
			_ = a.List(ctx)
		case "show":
			_ = a.Show(ctx)
		case "rm":
			_ = a.Rm(ctx)
		case "purge":
			_ = a.Purge(ctx)
		case "events":
			_ = a.Events(ctx)
		case "exit", "quit":
			return
		default:
			printlnFn(fmt.Sprintf("Unknown command: %s (try 'help')", cmd))
		}
	}
}
