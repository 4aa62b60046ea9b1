package domain

// ============================================================
// Health, stats and list API responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
	LastChecked string `json:"lastChecked"`
}

// ClientStats is returned by GET /v1/stats.
type ClientStats struct {
	Clients            int    `json:"clients"`
	WorkDone           int    `json:"workDone"`
	Paid               int    `json:"paid"`
	PaidTotal          string `json:"paidTotal"`
	PendingTotal       string `json:"pendingTotal"`
	NotifierDelivered  int64  `json:"notifierDelivered"`
	NotifierFailed     int64  `json:"notifierFailed"`
	PersistenceFailure int64  `json:"persistenceFailures"`
}

// ClientList is returned by GET /v1/clients.
type ClientList struct {
	Data        []ClientRecord `json:"data"`
	Total       int            `json:"total"`
	Sort        string         `json:"sort,omitempty"`
	Order       string         `json:"order,omitempty"`
	Highlighted string         `json:"highlighted,omitempty"`
	EditTarget  string         `json:"editTarget,omitempty"`
	Warning     string         `json:"warning,omitempty"`
}

// SearchResult is returned by GET /v1/search. Only the first match is
// surfaced; Matches tells the caller whether the fragment was ambiguous.
type SearchResult struct {
	Client  ClientRecord `json:"client"`
	Matches int          `json:"matches"`
}

// SubmitResult is returned after a form submission.
type SubmitResult struct {
	Client  ClientRecord `json:"client"`
	Created bool         `json:"created"`
}
