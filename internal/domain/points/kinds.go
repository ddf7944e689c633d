// Package points holds the static scoring tables: the event catalog, the
// survival step function, icky placement deltas and prophecy tiers.
//
// Event kinds and placements are closed enumerations. Every lookup is an
// exhaustive switch, so adding a kind without giving it a value is caught by
// the tests in this package rather than silently scoring zero.
package points

import (
	"fmt"
	"strings"
)

// EventKind identifies a scorable in-show event.
type EventKind int

// Event kinds. The zero value is invalid so that an unset field never scores.
const (
	EventUnknown EventKind = iota
	EventIdolFound
	EventAdvantageFound
	EventIdolPlayedCorrectly
	EventIdolPlayedIncorrectly
	EventAdvantagePlayed
	EventShotInTheDarkSuccess
	EventShotInTheDarkFailed
	EventIndividualImmunityWin
	EventIndividualRewardWin
	EventTribalImmunityWin
	EventTribalRewardWin
	EventMadeMerge
	EventMadeJury
	EventMadeFinalThree
	EventFireMakingWin
	EventSoleSurvivor
	EventVotedOut
	EventQuit
	EventFirstBoot
	EventSurvivedEpisode

	eventKindEnd
)

var eventKindNames = [...]string{
	EventUnknown:               "unknown",
	EventIdolFound:             "idol_found",
	EventAdvantageFound:        "advantage_found",
	EventIdolPlayedCorrectly:   "idol_played_correctly",
	EventIdolPlayedIncorrectly: "idol_played_incorrectly",
	EventAdvantagePlayed:       "advantage_played",
	EventShotInTheDarkSuccess:  "shot_in_the_dark_success",
	EventShotInTheDarkFailed:   "shot_in_the_dark_failed",
	EventIndividualImmunityWin: "individual_immunity_win",
	EventIndividualRewardWin:   "individual_reward_win",
	EventTribalImmunityWin:     "tribal_immunity_win",
	EventTribalRewardWin:       "tribal_reward_win",
	EventMadeMerge:             "made_merge",
	EventMadeJury:              "made_jury",
	EventMadeFinalThree:        "made_final_three",
	EventFireMakingWin:         "fire_making_win",
	EventSoleSurvivor:          "sole_survivor",
	EventVotedOut:              "voted_out",
	EventQuit:                  "quit",
	EventFirstBoot:             "first_boot",
	EventSurvivedEpisode:       "survived_episode",
}

// EventKinds returns every valid kind in catalog order.
func EventKinds() []EventKind {
	kinds := make([]EventKind, 0, eventKindEnd-1)
	for k := EventIdolFound; k < eventKindEnd; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Valid reports whether k is part of the catalog.
func (k EventKind) Valid() bool { return k > EventUnknown && k < eventKindEnd }

// String returns the wire name of the kind.
func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return eventKindNames[EventUnknown]
	}
	return eventKindNames[k]
}

// ParseEventKind maps a wire name back to its kind.
func ParseEventKind(s string) (EventKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k := EventIdolFound; k < eventKindEnd; k++ {
		if eventKindNames[k] == name {
			return k, nil
		}
	}
	return EventUnknown, fmt.Errorf("%w: %q", ErrUnknownEventKind, s)
}

// MarshalText implements encoding.TextMarshaler.
func (k EventKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEventKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *EventKind) UnmarshalText(b []byte) error {
	parsed, err := ParseEventKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Placement is a castaway's terminal outcome bucket.
type Placement int

// Placements. PlacementNone means the castaway is still in the game.
const (
	PlacementNone Placement = iota
	PlacementFirstBoot
	PlacementPreMerge
	PlacementJury
	PlacementThird
	PlacementRunnerUp
	PlacementWinner

	placementEnd
)

var placementNames = [...]string{
	PlacementNone:      "",
	PlacementFirstBoot: "first_boot",
	PlacementPreMerge:  "pre_merge",
	PlacementJury:      "jury",
	PlacementThird:     "3rd",
	PlacementRunnerUp:  "runner_up",
	PlacementWinner:    "winner",
}

// Placements returns every terminal placement, excluding PlacementNone.
func Placements() []Placement {
	out := make([]Placement, 0, placementEnd-1)
	for p := PlacementFirstBoot; p < placementEnd; p++ {
		out = append(out, p)
	}
	return out
}

// String returns the wire name; PlacementNone is the empty string.
func (p Placement) String() string {
	if p < 0 || int(p) >= len(placementNames) {
		return ""
	}
	return placementNames[p]
}

// ParsePlacement maps a wire name to a placement. Empty and "none" parse to
// PlacementNone.
func ParsePlacement(s string) (Placement, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "", "none", "active":
		return PlacementNone, nil
	case "third":
		return PlacementThird, nil
	}
	for p := PlacementFirstBoot; p < placementEnd; p++ {
		if placementNames[p] == name {
			return p, nil
		}
	}
	return PlacementNone, fmt.Errorf("%w: %q", ErrUnknownPlacement, s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Placement) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Placement) UnmarshalText(b []byte) error {
	parsed, err := ParsePlacement(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
