// Package picks validates player submissions before they reach the stores.
package picks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/okian/outwit/internal/domain/model"
	"github.com/okian/outwit/internal/domain/points"
)

// Field names used in validation errors. They match the JSON contract.
const (
	FieldTrio1    = "trio_castaway_1"
	FieldTrio2    = "trio_castaway_2"
	FieldTrio3    = "trio_castaway_3"
	FieldIcky     = "icky_castaway"
	FieldProphecy = "prophecy_answers"
)

// Submission is the raw picks payload. Values stay undecoded so that
// non-integers and non-booleans are reported instead of coerced.
type Submission struct {
	Trio1    json.RawMessage            `json:"trio_castaway_1"`
	Trio2    json.RawMessage            `json:"trio_castaway_2"`
	Trio3    json.RawMessage            `json:"trio_castaway_3"`
	Icky     json.RawMessage            `json:"icky_castaway"`
	Prophecy map[string]json.RawMessage `json:"prophecy_answers"`
}

// Valid is a submission that passed every rule.
type Valid struct {
	Trio    [3]int64
	Icky    int64
	Answers map[int]bool
}

// Picks returns the validated picks for a player.
func (v Valid) Picks(playerID string) model.Picks {
	return model.Picks{PlayerID: playerID, Trio: v.Trio, Icky: v.Icky}
}

// ProphecyAnswers returns the validated answers ordered by question id.
func (v Valid) ProphecyAnswers(playerID string) []model.ProphecyAnswer {
	out := make([]model.ProphecyAnswer, 0, len(v.Answers))
	for q, a := range v.Answers {
		out = append(out, model.ProphecyAnswer{PlayerID: playerID, QuestionID: q, Answer: a})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out
}

// Validate checks a submission against the picks contract and returns the
// decoded values. The first violated rule is reported as a *ValidationError.
func Validate(s Submission) (Valid, error) {
	var v Valid

	raw := [3]json.RawMessage{s.Trio1, s.Trio2, s.Trio3}
	fields := [3]string{FieldTrio1, FieldTrio2, FieldTrio3}
	for i := range raw {
		id, err := castawayID(fields[i], raw[i])
		if err != nil {
			return Valid{}, err
		}
		v.Trio[i] = id
	}
	icky, err := castawayID(FieldIcky, s.Icky)
	if err != nil {
		return Valid{}, err
	}
	v.Icky = icky

	for i := 0; i < len(v.Trio); i++ {
		for j := i + 1; j < len(v.Trio); j++ {
			if v.Trio[i] == v.Trio[j] {
				return Valid{}, newError(fields[j], ErrDuplicateTrio,
					fmt.Sprintf("castaway %d is already picked as %s", v.Trio[j], fields[i]))
			}
		}
	}
	for i, id := range v.Trio {
		if id == v.Icky {
			return Valid{}, newError(FieldIcky, ErrIckyInTrio,
				fmt.Sprintf("castaway %d is also picked as %s", id, fields[i]))
		}
	}

	answers, err := prophecyAnswers(s.Prophecy)
	if err != nil {
		return Valid{}, err
	}
	v.Answers = answers
	return v, nil
}

func castawayID(field string, raw json.RawMessage) (int64, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return 0, newError(field, ErrNotPositiveInteger, "is required")
	}
	// Only bare JSON integer literals are accepted: no strings, fractions or exponents.
	id, err := strconv.ParseInt(string(trimmed), 10, 64)
	if err != nil {
		return 0, newError(field, ErrNotPositiveInteger,
			fmt.Sprintf("must be a positive integer, got %s", trimmed))
	}
	if id <= 0 {
		return 0, newError(field, ErrNotPositiveInteger,
			fmt.Sprintf("must be a positive integer, got %d", id))
	}
	return id, nil
}

func prophecyAnswers(raw map[string]json.RawMessage) (map[int]bool, error) {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	answers := make(map[int]bool, points.QuestionCount)
	for _, key := range keys {
		q, err := strconv.Atoi(key)
		if err != nil || strconv.Itoa(q) != key || q < points.FirstQuestion || q > points.LastQuestion {
			return nil, newError(FieldProphecy, ErrProphecyKey,
				fmt.Sprintf("question %q is outside %d-%d", key, points.FirstQuestion, points.LastQuestion))
		}
		switch string(bytes.TrimSpace(raw[key])) {
		case "true":
			answers[q] = true
		case "false":
			answers[q] = false
		default:
			return nil, newError(FieldProphecy, ErrProphecyNotBoolean,
				fmt.Sprintf("answer to question %d must be true or false", q))
		}
	}
	if len(answers) != points.QuestionCount {
		return nil, newError(FieldProphecy, ErrProphecyCount,
			fmt.Sprintf("expected %d answers, got %d", points.QuestionCount, len(answers)))
	}
	return answers, nil
}
