package realtime

import "context"

// Channel names. A socket gateway subscribed to these fans events out to
// connected dashboard and mobile clients.
const GlobalChannel = "alerts.global"

func OrgChannel(orgID string) string { return "org-" + orgID }

func ZoneChannel(zone string) string { return "zone-" + zone }

// Publisher emits one named event on one channel. The dispatcher stays
// agnostic to the transport; tests substitute a recording fake.
type Publisher interface {
	Publish(ctx context.Context, channel, event string, payload any) error
}
