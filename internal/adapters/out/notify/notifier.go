// internal/adapters/out/notify/notifier.go
package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// WriterNotifier prints each message on its own line (the CLI's "toast").
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Notify(_ context.Context, msg string) {
	msg = strings.TrimSpace(msg)
	if n == nil || n.w == nil || msg == "" {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintf(n.w, "» %s\n", msg)
}

// LogNotifier records messages in the log, for headless runs.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log.Named("notify")}
}

func (n *LogNotifier) Notify(_ context.Context, msg string) {
	n.log.Info("notification", zap.String("message", msg))
}
