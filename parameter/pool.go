package parameter

// Render Resource Pool
const (
	// PoolDefaultCapacity is the initial number of pooled render resources
	PoolDefaultCapacity = 512

	// PoolEmergencyThreshold is the utilization ratio that triggers reclamation
	PoolEmergencyThreshold = 0.90

	// PoolReclaimFactor scales capacity down after an emergency reclamation
	PoolReclaimFactor = 0.5
)
