package client

import (
	"context"

	"github.com/dmitrijs2005/notesauth/internal/authrpc"
)

type Client interface {
	Close() error
	Register(ctx context.Context, login string, password []byte, name, email string) (*authrpc.Profile, error)
	Login(ctx context.Context, login string, password []byte) (*authrpc.Profile, error)
	Refresh(ctx context.Context) error
	Me(ctx context.Context) (*authrpc.Profile, error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
	LoggedIn() bool
}
