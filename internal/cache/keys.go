package cache

// Cache key formats. These are shared contract with anything else reading the
// stats cache, so changes here are wire-format changes.

// PlayerStatsKey returns the cache key for a player's season aggregates.
func PlayerStatsKey(playerID, seasonID string) string {
	return "player:" + playerID + ":" + seasonID
}

// TeamStatsKey returns the cache key for a team's season aggregates.
func TeamStatsKey(teamID, seasonID string) string {
	return "team:" + teamID + ":" + seasonID
}
