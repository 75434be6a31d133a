package constants

import "time"

// Dashboard constants
const (
	// DashboardTailSize is the number of log rows returned by the data endpoint
	DashboardTailSize = 100

	// DashboardCacheTTL is how long a parsed mirror file is reused between requests
	DashboardCacheTTL = 1 * time.Second
)
