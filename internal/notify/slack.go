// Package notify delivers outbound notifications when work orders are
// dispatched. Delivery mechanics belong to the surrounding system; the
// workflow only invokes it and never depends on the result.
package notify

import (
	"fmt"
	"log"

	"github.com/opsdeck/opsdeck/internal/database"
	"github.com/slack-go/slack"
)

// SlackNotifier posts dispatched work orders to a Slack channel.
// Settings are read per notification so operators can reconfigure
// without a restart.
type SlackNotifier struct{}

// NewSlackNotifier creates a new Slack notifier
func NewSlackNotifier() *SlackNotifier {
	return &SlackNotifier{}
}

// NotifyDispatch posts a message for a newly dispatched work order.
// Failures are logged and swallowed; notification is best-effort.
func (n *SlackNotifier) NotifyDispatch(occ *database.Occurrence, wo *database.WorkOrder) {
	settings, err := database.GetSlackSettings()
	if err != nil {
		log.Printf("SlackNotifier: could not load settings: %v", err)
		return
	}
	if !settings.IsActive() {
		return
	}

	client := slack.New(settings.BotToken)
	message := fmt.Sprintf("%s *Work order dispatched: %s*\n\n:wrench: *Priority:* %s\n:factory: *Asset:* %d\n:memo: %s",
		severityEmoji(occ.Severity), wo.Title, wo.Priority, occ.AssetID, occ.Description)

	_, _, err = client.PostMessage(
		settings.DispatchChannel,
		slack.MsgOptionText(message, false),
	)
	if err != nil {
		log.Printf("SlackNotifier: failed to post dispatch message for %s: %v", wo.UUID, err)
		return
	}
	log.Printf("SlackNotifier: posted dispatch notification for work order %s", wo.UUID)
}

// severityEmoji returns an emoji for the occurrence severity
func severityEmoji(severity database.Severity) string {
	switch severity {
	case database.SeverityCritical:
		return ":red_circle:"
	case database.SeverityHigh:
		return ":large_orange_circle:"
	case database.SeverityWarning:
		return ":large_yellow_circle:"
	case database.SeverityInfo:
		return ":large_blue_circle:"
	default:
		return ":white_circle:"
	}
}
