package services

// CapabilityAssignWorkOrders is the explicit capability allowing a user
// to assign work orders to technicians.
const CapabilityAssignWorkOrders = "workorder:assign"

// supervisoryRoles may assign work orders without holding the explicit
// capability.
var supervisoryRoles = map[string]bool{
	"admin":               true,
	"supervisor":          true,
	"maintenance_manager": true,
}

// AssignmentGate decides whether an actor may assign a dispatched work
// order to a technician in the same transaction as the report. It is a
// capability check only; the assignment write itself belongs to
// work-order management.
type AssignmentGate struct{}

// NewAssignmentGate creates a new assignment gate
func NewAssignmentGate() *AssignmentGate {
	return &AssignmentGate{}
}

// MayAutoAssign returns true only if the actor holds the explicit
// assignment capability or one of the supervisory roles.
func (g *AssignmentGate) MayAutoAssign(actor Actor) bool {
	if actor.HasCapability(CapabilityAssignWorkOrders) {
		return true
	}
	return supervisoryRoles[actor.Role]
}
