package xcmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
)

// Interrupted is returned by WaitInterrupted when a termination signal is
// caught.
type Interrupted struct {
	os.Signal
}

func (m Interrupted) Error() string {
	return m.String()
}

// IsInterrupted reports whether the error chain contains Interrupted.
func IsInterrupted(err error) bool {
	var interrupted Interrupted
	return errors.As(err, &interrupted)
}

// WaitInterrupted blocks until either SIGINT, SIGTERM or one of the extra
// signals is received or the provided context is canceled.
func WaitInterrupted(ctx context.Context, extra ...os.Signal) error {
	ch := make(chan os.Signal, 1)

	signals := append([]os.Signal{syscall.SIGINT, syscall.SIGTERM}, extra...)
	signal.Notify(ch, signals...)
	defer signal.Stop(ch)

	select {
	case v := <-ch:
		return Interrupted{Signal: v}
	case <-ctx.Done():
		return ctx.Err()
	}
}
