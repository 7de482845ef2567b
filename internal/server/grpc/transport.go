package grpc

import (
	"context"
	"strconv"
	"time"

	"github.com/dmitrijs2005/notesauth/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// headerTransport delivers the refresh session id in the response header.
type headerTransport struct {
	ctx context.Context
}

func (t headerTransport) Store(id string, maxAge time.Duration) error {
	return grpc.SetHeader(t.ctx, metadata.Pairs(
		common.RefreshSessionHeaderName, id,
		common.RefreshSessionMaxAgeHeaderName, strconv.FormatInt(int64(maxAge/time.Second), 10),
	))
}

// Clear sends an empty id with a zero max age.
func (t headerTransport) Clear() error {
	return grpc.SetHeader(t.ctx, metadata.Pairs(
		common.RefreshSessionHeaderName, "",
		common.RefreshSessionMaxAgeHeaderName, "0",
	))
}
