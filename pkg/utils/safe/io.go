package safe

import (
	"context"
	"io"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/utils/logging"
)

// ErrBodyTooLarge is returned by ReadAll when the reader exceeds the limit
var ErrBodyTooLarge = goerr.New("body exceeds size limit")

// Close closes closer and logs a failure. Nil closers are ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Warn("failed to close", slog.Any("error", err))
	}
}

// Write writes data to w and logs a failure. Used after the response status
// has been committed, when there is nothing left to report to the caller.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Warn("failed to write", slog.Any("error", err))
	}
}

// ReadAll reads at most limit bytes from r. Readers that hold more than limit
// bytes fail with ErrBodyTooLarge instead of being silently truncated.
func ReadAll(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read")
	}
	if int64(len(data)) > limit {
		return nil, goerr.Wrap(ErrBodyTooLarge, "read aborted", goerr.V("limit", limit))
	}
	return data, nil
}
