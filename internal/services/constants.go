package services

import "github.com/mustaqeer/mustaqeer-api/internal/quran"

const (
	// MaxMembers caps the number of members an episode can hold.
	MaxMembers = 50

	// CatchUpLimit is the episode progress (in juz) beyond which late
	// joiners are turned away.
	CatchUpLimit = 6

	// EvictionLimit is the accumulated unmet quota (in juz) at which the
	// rollover job drops a member from their episode.
	EvictionLimit = 6

	// XPPerJuz is the experience awarded per juz read.
	XPPerJuz = 10

	// TotalJuz is the number of juz in a full khatmah.
	TotalJuz = quran.Count
)
