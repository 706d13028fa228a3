package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

var errUsage = errors.New("usage")

func (a *App) usage(text string) error {
	fmt.Fprintln(a.out, "Usage:", text)
	return errUsage
}

func parseID(args []string) (int64, bool) {
	if len(args) != 1 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	return id, err == nil
}

func (a *App) Photos(ctx context.Context) error {
	photos, err := a.photos.List(ctx)
	if err != nil {
		return a.report(err)
	}
	if len(photos) == 0 {
		fmt.Fprintln(a.out, "No photos yet")
		return nil
	}
	for _, p := range photos {
		mark := " "
		if p.IsMain {
			mark = "*"
		}
		fmt.Fprintf(a.out, "%s %d\t%s\n", mark, p.ID, p.URL)
	}
	return nil
}

func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("upload <file>")
	}
	p, err := a.photos.Upload(ctx, args[0])
	if err != nil {
		return a.report(err)
	}
	if p.IsMain {
		fmt.Fprintf(a.out, "Uploaded photo %d (main): %s\n", p.ID, p.URL)
	} else {
		fmt.Fprintf(a.out, "Uploaded photo %d: %s\n", p.ID, p.URL)
	}
	return nil
}

func (a *App) SetMain(ctx context.Context, args []string) error {
	id, ok := parseID(args)
	if !ok {
		return a.usage("main <photoId>")
	}
	if err := a.photos.SetMain(ctx, id); err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Photo %d is now your main photo\n", id)
	return nil
}

func (a *App) DeletePhoto(ctx context.Context, args []string) error {
	id, ok := parseID(args)
	if !ok {
		return a.usage("delete-photo <photoId>")
	}
	if err := a.photos.Delete(ctx, id); err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Photo %d deleted\n", id)
	return nil
}
