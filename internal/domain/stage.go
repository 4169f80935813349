package domain

// ProductionStage is one step of the fixed production pipeline. The catalog
// is shared across laboratories; ids are stable constants, never database keys.
type ProductionStage struct {
	ID          string
	Name        string
	Description string
	OrderIndex  int // 1-based, contiguous
	Color       string
	// RequiresApproval marks stages that gate on a review step. Informational
	// only; the engine exposes it without enforcing anything.
	RequiresApproval bool
	// DeliveryReady marks the terminal stage from which an item can be
	// handed over. Keyed here instead of matching on the display name.
	DeliveryReady bool
}
