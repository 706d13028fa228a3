package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/datingapp/internal/client/client"
)

var getMultiline = GetMultiline

var containers = map[string]string{
	"unread": "Unread",
	"inbox":  "Inbox",
	"outbox": "Outbox",
}

func (a *App) Send(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("send <username>")
	}
	text, err := getMultiline(a.reader, "Message to "+args[0], a.out)
	if err != nil {
		return err
	}
	if text == "" {
		fmt.Fprintln(a.out, "Nothing to send")
		return nil
	}

	if _, err := a.messages.Send(ctx, strings.ToLower(args[0]), text); err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Sent")
	return nil
}

// Inbox lists a container: inbox [unread|inbox|outbox] [page].
func (a *App) Inbox(ctx context.Context, args []string) error {
	container, page := "Unread", 1
	if len(args) > 0 {
		c, ok := containers[strings.ToLower(args[0])]
		if !ok {
			return a.usage("inbox [unread|inbox|outbox] [page]")
		}
		container = c
	}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return a.usage("inbox [unread|inbox|outbox] [page]")
		}
		page = n
	}

	msgs, p, err := a.messages.List(ctx, container, page)
	if err != nil {
		return a.report(err)
	}
	a.printMessages(msgs)
	if p != nil && p.TotalPages > 0 {
		fmt.Fprintf(a.out, "Page %d of %d (%d messages)\n", p.CurrentPage, p.TotalPages, p.TotalItems)
	}
	return nil
}

func (a *App) Thread(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("thread <username>")
	}
	msgs, err := a.messages.Thread(ctx, strings.ToLower(args[0]))
	if err != nil {
		return a.report(err)
	}
	a.printMessages(msgs)
	return nil
}

func (a *App) printMessages(msgs []client.Message) {
	if len(msgs) == 0 {
		fmt.Fprintln(a.out, "No messages")
		return
	}
	for _, m := range msgs {
		read := ""
		if m.DateRead == nil {
			read = " (unread)"
		}
		fmt.Fprintf(a.out, "[%d] %s %s -> %s%s\n  %s\n",
			m.ID, m.MessageSent.Local().Format("2006-01-02 15:04"), m.SenderUsername, m.RecipientUsername, read, m.Content)
	}
}

// Keygen creates the shared message key pair in the data directory.
func (a *App) Keygen(ctx context.Context, args []string) error {
	force := len(args) == 1 && args[0] == "--force"
	if len(args) > 0 && !force {
		return a.usage("keygen [--force]")
	}
	if err := a.keys.Generate(a.config.KeyBits, force); err != nil {
		if errors.Is(err, os.ErrExist) {
			fmt.Fprintln(a.out, "Keys already exist, use keygen --force to replace them")
			return err
		}
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Key pair written to %s. Share both files with your contacts.\n", a.keys.Dir())
	return nil
}
