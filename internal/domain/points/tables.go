package points

// Prophecy catalog bounds.
const (
	FirstQuestion  = 1
	LastQuestion   = 16
	QuestionCount  = LastQuestion - FirstQuestion + 1
	MaxProphecySum = 45
)

// SurvivalTier awards Points for every survived episode numbered at most
// MaxEpisode. A zero MaxEpisode marks the open-ended final tier.
type SurvivalTier struct {
	MaxEpisode int
	Points     int
}

// Tables is the immutable scoring configuration. Build it once with
// Standard and pass it to whatever evaluates points.
type Tables struct {
	events   [eventKindEnd]int
	icky     [placementEnd]int
	survival []SurvivalTier
	tiers    [LastQuestion + 1]int
}

// Standard returns the season scoring tables.
func Standard() *Tables {
	t := &Tables{
		survival: []SurvivalTier{
			{MaxEpisode: 3, Points: 1},
			{MaxEpisode: 6, Points: 2},
			{MaxEpisode: 9, Points: 3},
			{MaxEpisode: 12, Points: 5},
			{MaxEpisode: 0, Points: 7},
		},
	}
	for _, k := range EventKinds() {
		t.events[k] = eventPoints(k)
	}
	for _, p := range Placements() {
		t.icky[p] = ickyPoints(p)
	}
	for q := FirstQuestion; q <= LastQuestion; q++ {
		t.tiers[q] = prophecyTier(q)
	}
	return t
}

func eventPoints(k EventKind) int {
	switch k {
	case EventIdolFound:
		return 5
	case EventAdvantageFound:
		return 4
	case EventIdolPlayedCorrectly:
		return 5
	case EventIdolPlayedIncorrectly:
		return -3
	case EventAdvantagePlayed:
		return 2
	case EventShotInTheDarkSuccess:
		return 6
	case EventShotInTheDarkFailed:
		return -2
	case EventIndividualImmunityWin:
		return 6
	case EventIndividualRewardWin:
		return 3
	case EventTribalImmunityWin:
		return 2
	case EventTribalRewardWin:
		return 1
	case EventMadeMerge:
		return 5
	case EventMadeJury:
		return 5
	case EventMadeFinalThree:
		return 8
	case EventFireMakingWin:
		return 5
	case EventSoleSurvivor:
		return 20
	case EventVotedOut:
		return -3
	case EventQuit:
		return -10
	case EventFirstBoot:
		return -5
	case EventSurvivedEpisode:
		// variable; see SurvivalPoints
		return 0
	case EventUnknown, eventKindEnd:
		return 0
	}
	panic("points: unhandled event kind " + k.String())
}

func ickyPoints(p Placement) int {
	switch p {
	case PlacementFirstBoot:
		return 15
	case PlacementPreMerge:
		return 8
	case PlacementJury:
		return -8
	case PlacementThird:
		return -15
	case PlacementWinner:
		return -25
	case PlacementRunnerUp, PlacementNone, placementEnd:
		return 0
	}
	panic("points: unhandled placement " + p.String())
}

func prophecyTier(q int) int {
	switch {
	case q < FirstQuestion || q > LastQuestion:
		return 0
	case q <= 3:
		return 1
	case q <= 7:
		return 2
	case q <= 9:
		return 3
	default:
		return 4
	}
}

// Event returns the fixed delta for k. SurvivedEpisode and invalid kinds
// return 0.
func (t *Tables) Event(k EventKind) int {
	if !k.Valid() {
		return 0
	}
	return t.events[k]
}

// SurvivalPoints returns the points for surviving episode n. Every n has an
// answer: numbers below one fall into the first tier.
func (t *Tables) SurvivalPoints(n int) int {
	for _, tier := range t.survival {
		if tier.MaxEpisode == 0 || n <= tier.MaxEpisode {
			return tier.Points
		}
	}
	return t.survival[len(t.survival)-1].Points
}

// Icky returns the icky-pick delta for a placement. Unscored placements,
// including PlacementNone and runner-up, return 0.
func (t *Tables) Icky(p Placement) int {
	if p < 0 || p >= placementEnd {
		return 0
	}
	return t.icky[p]
}

// ProphecyTier returns the points question q is worth, or 0 outside 1..16.
func (t *Tables) ProphecyTier(q int) int {
	if q < FirstQuestion || q > LastQuestion {
		return 0
	}
	return t.tiers[q]
}

// SurvivalTiers returns a copy of the survival step table.
func (t *Tables) SurvivalTiers() []SurvivalTier {
	out := make([]SurvivalTier, len(t.survival))
	copy(out, t.survival)
	return out
}
