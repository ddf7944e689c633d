package picks_test

import (
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"github.com/okian/outwit/internal/domain/picks"
	. "github.com/smartystreets/goconvey/convey"
)

func fullProphecy() map[string]json.RawMessage {
	m := make(map[string]json.RawMessage, 16)
	for q := 1; q <= 16; q++ {
		if q%3 == 0 {
			m[strconv.Itoa(q)] = json.RawMessage("true")
		} else {
			m[strconv.Itoa(q)] = json.RawMessage("false")
		}
	}
	return m
}

func validSubmission() picks.Submission {
	return picks.Submission{
		Trio1:    json.RawMessage("1"),
		Trio2:    json.RawMessage("2"),
		Trio3:    json.RawMessage("3"),
		Icky:     json.RawMessage("4"),
		Prophecy: fullProphecy(),
	}
}

func ruleOf(err error) error {
	var verr *picks.ValidationError
	if errors.As(err, &verr) {
		return verr.Rule
	}
	return nil
}

func TestValidate(t *testing.T) {
	Convey("Given a well-formed submission", t, func() {
		sub := validSubmission()

		Convey("When validating", func() {
			v, err := picks.Validate(sub)

			Convey("Then it passes and decodes the picks", func() {
				So(err, ShouldBeNil)
				So(v.Trio, ShouldResemble, [3]int64{1, 2, 3})
				So(v.Icky, ShouldEqual, int64(4))
				So(len(v.Answers), ShouldEqual, 16)
				So(v.Answers[3], ShouldBeTrue)
				So(v.Answers[1], ShouldBeFalse)
			})

			Convey("Then answers come back ordered by question", func() {
				answers := v.ProphecyAnswers("p1")
				So(len(answers), ShouldEqual, 16)
				for i, a := range answers {
					So(a.QuestionID, ShouldEqual, i+1)
					So(a.PlayerID, ShouldEqual, "p1")
				}
				So(v.Picks("p1").Trio, ShouldResemble, [3]int64{1, 2, 3})
			})
		})

		Convey("When the JSON contract is decoded from a request body", func() {
			body := `{"trio_castaway_1": 7, "trio_castaway_2": 8, "trio_castaway_3": 9, "icky_castaway": 10,
				"prophecy_answers": {"1":true,"2":false,"3":true,"4":false,"5":true,"6":false,"7":true,"8":false,
				"9":true,"10":false,"11":true,"12":false,"13":true,"14":false,"15":true,"16":false}}`
			var decoded picks.Submission
			So(json.Unmarshal([]byte(body), &decoded), ShouldBeNil)

			Convey("Then it validates", func() {
				v, err := picks.Validate(decoded)
				So(err, ShouldBeNil)
				So(v.Icky, ShouldEqual, int64(10))
			})
		})
	})

	Convey("Given castaway id violations", t, func() {
		cases := []json.RawMessage{
			json.RawMessage("0"),
			json.RawMessage("-3"),
			json.RawMessage("2.5"),
			json.RawMessage("1e2"),
			json.RawMessage(`"2"`),
			json.RawMessage("null"),
			nil,
		}
		for _, raw := range cases {
			sub := validSubmission()
			sub.Trio2 = raw
			_, err := picks.Validate(sub)

			So(err, ShouldNotBeNil)
			So(errors.Is(err, picks.ErrNotPositiveInteger), ShouldBeTrue)
			var verr *picks.ValidationError
			So(errors.As(err, &verr), ShouldBeTrue)
			So(verr.Field, ShouldEqual, picks.FieldTrio2)
		}

		Convey("Then a bad icky id names the icky field", func() {
			sub := validSubmission()
			sub.Icky = json.RawMessage("-1")
			_, err := picks.Validate(sub)
			var verr *picks.ValidationError
			So(errors.As(err, &verr), ShouldBeTrue)
			So(verr.Field, ShouldEqual, picks.FieldIcky)
		})
	})

	Convey("Given a trio with a repeated castaway", t, func() {
		sub := validSubmission()
		sub.Trio3 = json.RawMessage("1")

		Convey("Then it is rejected as a duplicate", func() {
			_, err := picks.Validate(sub)
			So(errors.Is(ruleOf(err), picks.ErrDuplicateTrio), ShouldBeTrue)
			So(picks.RuleName(err), ShouldEqual, "duplicate_trio")
		})
	})

	Convey("Given an icky pick that is also in the trio", t, func() {
		sub := validSubmission()
		sub.Icky = json.RawMessage("2")

		Convey("Then it is rejected", func() {
			_, err := picks.Validate(sub)
			So(errors.Is(ruleOf(err), picks.ErrIckyInTrio), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, picks.FieldIcky)
		})
	})

	Convey("Given prophecy answer violations", t, func() {
		Convey("When one answer is missing", func() {
			sub := validSubmission()
			delete(sub.Prophecy, "16")
			_, err := picks.Validate(sub)

			Convey("Then the count rule fails", func() {
				So(errors.Is(ruleOf(err), picks.ErrProphecyCount), ShouldBeTrue)
			})
		})

		Convey("When there are no answers at all", func() {
			sub := validSubmission()
			sub.Prophecy = nil
			_, err := picks.Validate(sub)

			Convey("Then the count rule fails", func() {
				So(errors.Is(ruleOf(err), picks.ErrProphecyCount), ShouldBeTrue)
			})
		})

		Convey("When an extra question is answered", func() {
			sub := validSubmission()
			sub.Prophecy["17"] = json.RawMessage("true")
			_, err := picks.Validate(sub)

			Convey("Then the key rule fails", func() {
				So(errors.Is(ruleOf(err), picks.ErrProphecyKey), ShouldBeTrue)
			})
		})

		Convey("When a key is out of range or not canonical", func() {
			for _, key := range []string{"0", "-1", "01", "abc", ""} {
				sub := validSubmission()
				delete(sub.Prophecy, "1")
				sub.Prophecy[key] = json.RawMessage("true")
				_, err := picks.Validate(sub)
				So(errors.Is(ruleOf(err), picks.ErrProphecyKey), ShouldBeTrue)
			}
		})

		Convey("When an answer is not a boolean", func() {
			for _, raw := range []string{`"true"`, "1", "null", "{}"} {
				sub := validSubmission()
				sub.Prophecy["5"] = json.RawMessage(raw)
				_, err := picks.Validate(sub)
				So(errors.Is(ruleOf(err), picks.ErrProphecyNotBoolean), ShouldBeTrue)
			}
		})
	})
}
