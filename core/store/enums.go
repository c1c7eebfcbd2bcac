package store

// Closed value sets for the enum-like string columns. The store itself keeps
// the passthrough contract and accepts any string; membership is checked at
// the API boundary so a repository call can still replay legacy rows
// verbatim.

var IncidentTypes = []string{"phishing", "malware", "ddos", "data_breach", "unauthorized_access", "other"}

var IncidentSeverities = []string{"low", "medium", "high", "critical"}

var IncidentStatuses = []string{"open", "investigating", "contained", "resolved", "closed"}

var DatasetCategories = []string{"analytics", "operations", "research", "reporting", "archive"}

var DatasetSources = []string{"internal", "external", "public", "partner"}

var TicketStatuses = []string{"open", "in_progress", "resolved", "closed"}

var TicketCategories = []string{"hardware", "software", "network", "access", "other"}

var UserRoles = []string{"user", "admin", "analyst"}

// ValidEnum reports whether value belongs to the given closed set.
func ValidEnum(set []string, value string) bool {
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}
