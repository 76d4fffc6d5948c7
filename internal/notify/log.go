package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes messages to the application log. Used when no broker
// is configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, recipientID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.log.Info("direct message",
		slog.String("recipient_id", recipientID),
		slog.String("text", text),
	)

	return nil
}

func (n *LogNotifier) Close() error {
	return nil
}
