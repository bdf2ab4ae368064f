package service_interfaces

import (
	"context"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
)

// WorkflowService encodes which role may move a transaction between which
// states. Authenticating the actor behind the role is the caller's concern.
type WorkflowService interface {
	SetState(ctx context.Context, transactionID string, newState domain.TransactionState, role domain.Role, actor, notes string) error
	// RecordReceipt attaches the payout receipt reference to a pending
	// withdrawal; a withdrawal cannot reach done without one.
	RecordReceipt(ctx context.Context, transactionID, receipt string) error
	// AdvanceState applies the canonical next step
	// (treasury -> sandogh -> sandogh-approved -> done) and reports whether
	// a transition occurred; terminal states are a no-op.
	AdvanceState(ctx context.Context, transactionID string, role domain.Role, actor string) (bool, error)
}
