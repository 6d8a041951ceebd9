package session

import (
	"testing"
	"time"
)

func sessionWith(device DeviceInfo, activity time.Time) *Session {
	return &Session{
		ID:             "s-" + device.IP + device.Browser,
		Device:         device,
		CreatedAt:      activity,
		LastActivityAt: activity,
		ExpiresAt:      activity.Add(7 * 24 * time.Hour),
		IsActive:       true,
	}
}

func TestAnalyzeQuietHistory(t *testing.T) {
	now := time.Now()
	device := DeviceInfo{IP: "10.0.0.1", Browser: "Firefox", OS: "Linux", DeviceType: "desktop"}

	report := Analyze([]*Session{sessionWith(device, now.Add(-time.Hour))}, device, now)
	if report.IsSuspicious {
		t.Fatalf("expected quiet history to be unsuspicious, got %+v", report)
	}
	if report.RiskLevel != RiskLow {
		t.Fatalf("expected low risk, got %s", report.RiskLevel)
	}
}

func TestAnalyzeThreeIPsIsMediumOrHigher(t *testing.T) {
	now := time.Now()
	list := []*Session{
		sessionWith(DeviceInfo{IP: "10.0.0.1", Browser: "Firefox", OS: "Linux", DeviceType: "desktop"}, now.Add(-time.Hour)),
		sessionWith(DeviceInfo{IP: "10.0.0.2", Browser: "Chrome", OS: "Windows", DeviceType: "desktop"}, now.Add(-2*time.Hour)),
		sessionWith(DeviceInfo{IP: "10.0.0.3", Browser: "Safari", OS: "macOS", DeviceType: "desktop"}, now.Add(-3*time.Hour)),
	}

	current := DeviceInfo{IP: "10.0.0.4", Browser: "Edge", OS: "Windows", DeviceType: "desktop"}
	report := Analyze(list, current, now)

	if !report.IsSuspicious {
		t.Fatal("expected suspicious report")
	}
	if report.RiskLevel != RiskMedium && report.RiskLevel != RiskHigh {
		t.Fatalf("expected medium or high risk, got %s", report.RiskLevel)
	}
}

func TestAnalyzeHighRisk(t *testing.T) {
	now := time.Now()
	var list []*Session
	for i := 0; i < 6; i++ {
		list = append(list, sessionWith(DeviceInfo{
			IP:         string(rune('a' + i)),
			Browser:    "Chrome",
			OS:         "Windows",
			DeviceType: []string{"desktop", "mobile", "tablet"}[i%3],
		}, now.Add(-time.Duration(i)*time.Hour)))
	}

	report := Analyze(list, DeviceInfo{Browser: "Lynx", OS: "Plan9"}, now)
	if report.RiskLevel != RiskHigh {
		t.Fatalf("expected high risk, got %s (%v)", report.RiskLevel, report.Reasons)
	}
}

func TestAnalyzeIgnoresStaleSessions(t *testing.T) {
	now := time.Now()
	device := DeviceInfo{IP: "10.0.0.1", Browser: "Firefox", OS: "Linux"}

	list := []*Session{
		sessionWith(DeviceInfo{IP: "1.1.1.1", Browser: "A", OS: "A"}, now.Add(-48*time.Hour)),
		sessionWith(DeviceInfo{IP: "2.2.2.2", Browser: "B", OS: "B"}, now.Add(-30*time.Hour)),
		sessionWith(DeviceInfo{IP: "3.3.3.3", Browser: "C", OS: "C"}, now.Add(-25*time.Hour)),
		sessionWith(device, now.Add(-time.Hour)),
	}

	report := Analyze(list, device, now)
	if report.IsSuspicious {
		t.Fatalf("expected stale sessions to be ignored, got %+v", report)
	}
}

func TestAnalyzeEmptyHistoryNotSuspicious(t *testing.T) {
	report := Analyze(nil, DeviceInfo{Browser: "Firefox", OS: "Linux"}, time.Now())
	if report.IsSuspicious {
		t.Fatal("expected empty history to be unsuspicious")
	}
}
