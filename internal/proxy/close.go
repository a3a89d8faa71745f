package proxy

import (
	"context"
	"io"

	"github.com/rs/zerolog"
)

// closeBody closes an upstream body, logging rather than returning the error.
func closeBody(ctx context.Context, body io.Closer) {
	if err := body.Close(); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("failed to close upstream body")
	}
}
