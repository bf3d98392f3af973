package messageevent

const (
	OverrideRequested = "override_requested"
	OverrideApproved  = "override_approved"
	OverrideRejected  = "override_rejected"
	OverrideCancelled = "override_cancelled"
	OverrideExpired   = "override_expired"

	TransferBlocked     = "transfer_blocked"
	TransferQuarantined = "transfer_quarantined"
)
