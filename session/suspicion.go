package session

import "time"

// Risk levels reported by Analyze.
const (
	// RiskLow is an exported constant or variable used by the auth engine.
	RiskLow = "low"
	// RiskMedium is an exported constant or variable used by the auth engine.
	RiskMedium = "medium"
	// RiskHigh is an exported constant or variable used by the auth engine.
	RiskHigh = "high"
)

// Flag reasons reported by Analyze.
const (
	// ReasonMultipleLocations is an exported constant or variable used by the auth engine.
	ReasonMultipleLocations = "multiple locations"
	// ReasonMultipleDeviceTypes is an exported constant or variable used by the auth engine.
	ReasonMultipleDeviceTypes = "multiple device types"
	// ReasonHighFrequency is an exported constant or variable used by the auth engine.
	ReasonHighFrequency = "high-frequency logins"
	// ReasonNewDevice is an exported constant or variable used by the auth engine.
	ReasonNewDevice = "new device/browser"
)

const analysisWindow = 24 * time.Hour

// ActivityReport is the advisory output of the suspicious-activity
// heuristic. It never blocks login; the orchestrator only uses it to
// trigger a notification.
type ActivityReport struct {
	IsSuspicious bool
	Reasons      []string
	RiskLevel    string
}

// Analyze scores recent session metadata against the current device.
// Only sessions with activity inside the last 24 hours are considered.
func Analyze(list []*Session, current DeviceInfo, now time.Time) ActivityReport {
	cutoff := now.Add(-analysisWindow)

	ips := map[string]struct{}{}
	deviceTypes := map[string]struct{}{}
	recent := 0
	pairSeen := false

	for _, s := range list {
		if s.LastActivityAt.Before(cutoff) {
			continue
		}
		recent++
		if s.Device.IP != "" {
			ips[s.Device.IP] = struct{}{}
		}
		if s.Device.DeviceType != "" {
			deviceTypes[s.Device.DeviceType] = struct{}{}
		}
		if s.Device.Browser == current.Browser && s.Device.OS == current.OS {
			pairSeen = true
		}
	}

	var reasons []string
	if len(ips) > 2 {
		reasons = append(reasons, ReasonMultipleLocations)
	}
	if len(deviceTypes) > 2 {
		reasons = append(reasons, ReasonMultipleDeviceTypes)
	}
	if recent > 5 {
		reasons = append(reasons, ReasonHighFrequency)
	}
	if recent > 0 && !pairSeen {
		reasons = append(reasons, ReasonNewDevice)
	}

	report := ActivityReport{Reasons: reasons}
	switch {
	case len(reasons) >= 3:
		report.RiskLevel = RiskHigh
	case len(reasons) == 2:
		report.RiskLevel = RiskMedium
	default:
		report.RiskLevel = RiskLow
	}
	report.IsSuspicious = len(reasons) > 0
	return report
}
