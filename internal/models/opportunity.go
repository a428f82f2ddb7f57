package models

// Opportunity is the unit record every source adapter emits. The JSON
// field names are the contract consumed by the static site renderer and
// must not change without a coordinated frontend release.
type Opportunity struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Deadline    string `json:"deadline"`
	Difficulty  string `json:"difficulty"`
	Description string `json:"description"`
	URL         string `json:"url"`
	DetailsURL  string `json:"detailsUrl"`
	State       string `json:"state"`
	Urgency     string `json:"urgency"`
	UrgencyDays int    `json:"urgencyDays"`
	Value       string `json:"value"`
	Featured    bool   `json:"featured"`
	Source      string `json:"source"`
}

// Metadata summarizes one pipeline run over the deduplicated set.
// Sources always carries an entry for every known source domain, zero
// when that source contributed nothing.
type Metadata struct {
	LastUpdated string         `json:"last_updated"`
	TotalCount  int            `json:"total_count"`
	Sources     map[string]int `json:"sources"`
	ByCategory  map[string]int `json:"by_category"`
	ByState     map[string]int `json:"by_state"`
}

// AggregateResult is the document handed to the persistence sink and,
// through it, to the website.
type AggregateResult struct {
	Opportunities []Opportunity `json:"opportunities"`
	Metadata      Metadata      `json:"metadata"`
}
