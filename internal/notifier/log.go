package notifier

import (
	"log/slog"

	"github.com/mjdav02/shiftwatch/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes matches to the logger instead of sending mail. Used
// when notification.type is "log" and in check mode.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each listing. Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(listings []model.Listing) error {
	for _, l := range listings {
		n.logger.Info("new listing",
			"listing", l.ID,
			"title", l.Title,
			"location", l.Location,
			"pay", l.Pay,
			"shift", l.Shift,
			"link", l.Link,
		)
	}
	return nil
}

// Alert logs the operator message.
func (n *LogNotifier) Alert(subject, body string) error {
	n.logger.Warn("operator alert", "subject", subject, "body", body)
	return nil
}
