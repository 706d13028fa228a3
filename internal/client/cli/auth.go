package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/datingapp/internal/client/client"
	"github.com/dmitrijs2005/datingapp/internal/common"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for the account details, creates the account and signs
// the new user in.
func (a *App) Register(ctx context.Context) error {
	var in client.RegisterRequest

	fields := []struct {
		prompt string
		dst    *string
	}{
		{"Enter username", &in.Username},
		{"Known as", &in.KnownAs},
		{"Gender (male/female)", &in.Gender},
		{"Date of birth (YYYY-MM-DD)", &in.DateOfBirth},
		{"City", &in.City},
		{"Country", &in.Country},
	}
	for _, f := range fields {
		v, err := getSimpleText(a.reader, f.prompt, a.out)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	in.Password = string(password)

	u, err := a.auth.Register(ctx, in)
	if err != nil {
		return a.report(err)
	}
	a.userName = u.Username
	fmt.Fprintf(a.out, "Welcome, %s!\n", u.KnownAs)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.auth.Login(ctx, userName, password)
	if err != nil {
		return a.report(err)
	}
	a.userName = u.Username
	fmt.Fprintf(a.out, "Logged in as %s\n", u.Username)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return a.report(err)
	}
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
