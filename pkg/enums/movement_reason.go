package enums

// MovementReason labels an inventory_movements row.
type MovementReason string

const (
	MovementReasonOrderApproved MovementReason = "order_approved"
	MovementReasonRestock       MovementReason = "restock"
)

func (r MovementReason) IsValid() bool {
	return r == MovementReasonOrderApproved || r == MovementReasonRestock
}
