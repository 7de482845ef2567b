package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/notesauth/internal/authrpc"
	"github.com/dmitrijs2005/notesauth/internal/client/client"
	"github.com/dmitrijs2005/notesauth/internal/common"
)

// getSimpleText and getPassword are test seams for the input helpers.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func printProfile(p *authrpc.Profile) {
	if p == nil {
		return
	}
	printlnFn(fmt.Sprintf("id: %s\nlogin: %s\nname: %s\nemail: %s", p.ID, p.Login, p.Name, p.Email))
}

// report prints err in user terms and returns it unchanged.
func report(err error) error {
	switch {
	case errors.Is(err, client.ErrUnavailable):
		printlnFn("Server unavailable, try again later")
	case errors.Is(err, client.ErrUnauthorized):
		printlnFn("Unauthorized")
	case errors.Is(err, client.ErrNotLoggedIn):
		printlnFn("Not logged in")
	default:
		printlnFn("Error:", err.Error())
	}
	return err
}

// Register prompts for login, name, email and password and creates an
// account. It does not log in.
func (a *App) Register(ctx context.Context) error {
	login, err := getSimpleText(a.reader, "Enter login", os.Stdout)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter name", os.Stdout)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if _, err := a.client.Register(ctx, login, password, name, email); err != nil {
		if errors.Is(err, client.ErrAlreadyExists) {
			printlnFn("Already registered")
			return err
		}
		return report(err)
	}

	printlnFn("Success! You can log in now.")
	return nil
}

// Login prompts for credentials and opens a session.
func (a *App) Login(ctx context.Context) error {
	login, err := getSimpleText(a.reader, "Enter login", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	p, err := a.client.Login(ctx, login, password)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			printlnFn("Login or password is incorrect")
			return err
		}
		return report(err)
	}

	a.setLogin(p.Login)
	printlnFn("Login successful")
	return nil
}

// Refresh rotates the refresh session explicitly.
func (a *App) Refresh(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.client.Refresh(ctx); err != nil {
		if !a.client.LoggedIn() {
			a.setLogin("")
		}
		return report(err)
	}
	printlnFn("Session refreshed")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	p, err := a.client.Me(ctx)
	if err != nil {
		return report(err)
	}
	printProfile(p)
	return nil
}

// Logout revokes the session. Local credentials are dropped either way.
func (a *App) Logout(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	err := a.client.Logout(ctx)
	a.setLogin("")
	if err != nil {
		return report(err)
	}
	printlnFn("Logged out")
	return nil
}
