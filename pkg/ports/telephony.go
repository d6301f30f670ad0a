package ports

import "context"

// TelephonyControl issues call-control commands to the provider out of
// band, keyed by the provider-assigned call id. Used by transfer_call
// nodes and by end handling when the protocol carries no native hangup.
type TelephonyControl interface {
	Transfer(ctx context.Context, callID, target string) error
	Hangup(ctx context.Context, callID string) error
}
