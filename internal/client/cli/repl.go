package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Photos(ctx context.Context) error
	Upload(ctx context.Context, args []string) error
	SetMain(ctx context.Context, args []string) error
	DeletePhoto(ctx context.Context, args []string) error
	Send(ctx context.Context, args []string) error
	Inbox(ctx context.Context, args []string) error
	Thread(ctx context.Context, args []string) error
	Keygen(ctx context.Context, args []string) error
}

const (
	helpSignedOut = "Available commands: register, login, keygen [--force], exit"
	helpSignedIn  = "Available commands: photos, upload <file>, main <photoId>, delete-photo <photoId>, " +
		"send <username>, inbox [Unread|Inbox|Outbox] [page], thread <username>, keygen [--force], logout, exit"
)

// runREPL reads commands line by line from reader and dispatches them until
// EOF or exit. Command handlers report their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("dating %s > ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpSignedOut)
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "photos":
			_ = a.Photos(ctx)

		case "upload":
			_ = a.Upload(ctx, args)

		case "main":
			_ = a.SetMain(ctx, args)

		case "delete-photo":
			_ = a.DeletePhoto(ctx, args)

		case "send":
			_ = a.Send(ctx, args)

		case "inbox":
			_ = a.Inbox(ctx, args)

		case "thread":
			_ = a.Thread(ctx, args)

		case "keygen":
			_ = a.Keygen(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}
