package model

// PlayerScore is one row of the score cache. It is derived from the event
// log, picks and prophecy data and can be rebuilt at any time.
type PlayerScore struct {
	PlayerID    string
	DisplayName string
	Trio        int
	Icky        int
	Prophecy    int
	Total       int
	TrioDetail  []CastawayScore
}

// CastawayScore is the per-castaway trio breakdown shown next to a score.
type CastawayScore struct {
	CastawayID int64
	Points     int
}
