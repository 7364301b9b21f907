// Package status defines the service, incident and impact enumerations shared
// by probing, storage and the HTTP API.
package status

// Status is the operational state of a service.
type Status string

const (
	Operational         Status = "OPERATIONAL"
	DegradedPerformance Status = "DEGRADED_PERFORMANCE"
	PartialOutage       Status = "PARTIAL_OUTAGE"
	MajorOutage         Status = "MAJOR_OUTAGE"
	Maintenance         Status = "MAINTENANCE"
)

// Valid reports whether s is a known service status.
func (s Status) Valid() bool {
	switch s {
	case Operational, DegradedPerformance, PartialOutage, MajorOutage, Maintenance:
		return true
	}
	return false
}

// IncidentStatus tracks an incident through its lifecycle.
type IncidentStatus string

const (
	Investigating IncidentStatus = "INVESTIGATING"
	Identified    IncidentStatus = "IDENTIFIED"
	Monitoring    IncidentStatus = "MONITORING"
	Resolved      IncidentStatus = "RESOLVED"
)

// Valid reports whether s is a known incident status.
func (s IncidentStatus) Valid() bool {
	switch s {
	case Investigating, Identified, Monitoring, Resolved:
		return true
	}
	return false
}

// Impact is the declared severity of an incident.
type Impact string

const (
	ImpactNone     Impact = "NONE"
	ImpactMinor    Impact = "MINOR"
	ImpactMajor    Impact = "MAJOR"
	ImpactCritical Impact = "CRITICAL"
)

// Valid reports whether i is a known impact level.
func (i Impact) Valid() bool {
	switch i {
	case ImpactNone, ImpactMinor, ImpactMajor, ImpactCritical:
		return true
	}
	return false
}

// ForImpact returns the service status implied by an incident of impact i.
func ForImpact(i Impact) Status {
	switch i {
	case ImpactCritical:
		return MajorOutage
	case ImpactMajor:
		return PartialOutage
	case ImpactMinor:
		return DegradedPerformance
	default:
		return Operational
	}
}
