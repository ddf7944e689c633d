package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/outwit/internal/adapters/http/api"
	service "github.com/okian/outwit/internal/app"
	"github.com/okian/outwit/internal/domain/model"
	"github.com/okian/outwit/internal/domain/picks"
	"github.com/okian/outwit/internal/domain/points"
	"github.com/okian/outwit/internal/domain/types"
)

// mockDependencies records calls and returns canned results.
type mockDependencies struct {
	mu         sync.Mutex
	seen       map[string]bool
	enqueued   []model.Job
	enqueueErr error

	recomputeErr error
	scopes       []service.Scope
	submitted    map[string]picks.Submission
	submitErr    error
	resolved     map[int]*bool

	entries   []types.Entry
	limits    []int
	readErr   error
	detail    types.PlayerDetail
	detailErr error
}

func newMock() *mockDependencies {
	return &mockDependencies{
		seen:      make(map[string]bool),
		submitted: make(map[string]picks.Submission),
		resolved:  make(map[int]*bool),
	}
}

func (m *mockDependencies) SeenAndRecord(_ context.Context, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[id] {
		return true
	}
	m.seen[id] = true
	return false
}

func (m *mockDependencies) Unrecord(_ context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, id)
}

func (m *mockDependencies) Enqueue(_ context.Context, job model.Job) error { //nolint:gocritic // hugeParam
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

func (m *mockDependencies) Recompute(_ context.Context, scope service.Scope) (service.RecomputeResult, error) {
	m.scopes = append(m.scopes, scope)
	if m.recomputeErr != nil {
		return service.RecomputeResult{}, m.recomputeErr
	}
	return service.RecomputeResult{RunID: uuid.New(), Scope: scope, Players: 3, Duration: time.Millisecond}, nil
}

func (m *mockDependencies) SubmitPicks(_ context.Context, playerID string, sub picks.Submission) error { //nolint:gocritic // hugeParam
	if m.submitErr != nil {
		return m.submitErr
	}
	if _, err := picks.Validate(sub); err != nil {
		return err
	}
	m.submitted[playerID] = sub
	return nil
}

func (m *mockDependencies) ResolveProphecy(ctx context.Context, q int, outcome *bool) (service.RecomputeResult, error) {
	if q > points.LastQuestion {
		return service.RecomputeResult{}, fmt.Errorf("%w: %d", service.ErrInvalidQuestion, q)
	}
	m.resolved[q] = outcome
	return m.Recompute(ctx, service.Scope{})
}

func (m *mockDependencies) Leaderboard(_ context.Context, limit int) ([]types.Entry, error) {
	m.limits = append(m.limits, limit)
	if m.readErr != nil {
		return nil, m.readErr
	}
	if limit > 0 && limit < len(m.entries) {
		return m.entries[:limit], nil
	}
	return m.entries, nil
}

func (m *mockDependencies) PlayerScore(_ context.Context, _ string) (types.PlayerDetail, error) {
	return m.detail, m.detailErr
}

func (m *mockDependencies) GetStats() map[string]any {
	return map[string]any{"started": true, "jobs_processed": 7}
}

func newMux(deps api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, nil).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

const validPicks = `{"trio_castaway_1":1,"trio_castaway_2":2,"trio_castaway_3":3,"icky_castaway":4,"prophecy_answers":{` +
	`"1":true,"2":true,"3":true,"4":true,"5":true,"6":true,"7":true,"8":true,` +
	`"9":true,"10":true,"11":true,"12":true,"13":true,"14":true,"15":true,"16":false}}`

func TestRoutes(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := newMock()
		mux := newMux(deps)

		Convey("When the metrics endpoint is scraped", func() {
			w := do(mux, http.MethodGet, "/healthz", "")

			Convey("Then Prometheus exposition is served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "outwit_scoring")
			})
		})

		Convey("When stats are requested", func() {
			w := do(mux, http.MethodGet, "/stats", "")

			Convey("Then the provider's map is returned as JSON", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["jobs_processed"], ShouldEqual, float64(7))
			})
		})

		Convey("When a route is called with the wrong method", func() {
			w := do(mux, http.MethodGet, "/recompute", "")

			Convey("Then the mux refuses it", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestFinalizeHandler(t *testing.T) {
	Convey("Given a finalize endpoint", t, func() {
		deps := newMock()
		mux := newMux(deps)
		body := `{"request_id":"r-1","events":[{"castaway_id":1,"kind":"idol_found"}],` +
			`"eliminations":[{"castaway_id":4,"placement":"first_boot","boot_order":1}]}`

		Convey("When a valid request arrives", func() {
			w := do(mux, http.MethodPost, "/episodes/10/finalize", body)

			Convey("Then it is queued and acknowledged", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(decode(w)["status"], ShouldEqual, "accepted")
				So(len(deps.enqueued), ShouldEqual, 1)
				job := deps.enqueued[0]
				So(job.ID, ShouldEqual, "r-1")
				So(job.Kind, ShouldEqual, model.JobFinalize)
				So(*job.EpisodeID, ShouldEqual, int64(10))
				So(job.Events, ShouldResemble, []model.CastawayEvent{{EpisodeID: 10, CastawayID: 1, Kind: points.EventIdolFound}})
				So(job.Eliminations, ShouldResemble, []model.Elimination{{CastawayID: 4, Placement: points.PlacementFirstBoot, BootOrder: 1}})
			})
		})

		Convey("When the same request id arrives twice", func() {
			do(mux, http.MethodPost, "/episodes/10/finalize", body)
			w := do(mux, http.MethodPost, "/episodes/10/finalize", body)

			Convey("Then the second is acknowledged as a duplicate", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["duplicate"], ShouldEqual, true)
				So(len(deps.enqueued), ShouldEqual, 1)
			})
		})

		Convey("When the queue is full", func() {
			deps.enqueueErr = fmt.Errorf("%w: queue full", service.ErrBackpressure)
			w := do(mux, http.MethodPost, "/episodes/10/finalize", body)

			Convey("Then 429 is returned and the id can be retried", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decode(w)["code"], ShouldEqual, "backpressure")
				So(deps.seen["r-1"], ShouldBeFalse)
			})
		})

		Convey("When the request is malformed", func() {
			badKind := do(mux, http.MethodPost, "/episodes/10/finalize", `{"request_id":"r","events":[{"castaway_id":1,"kind":"won_everything"}]}`)
			noID := do(mux, http.MethodPost, "/episodes/10/finalize", `{"events":[]}`)
			badPath := do(mux, http.MethodPost, "/episodes/ten/finalize", body)
			noPlacement := do(mux, http.MethodPost, "/episodes/10/finalize", `{"request_id":"r","eliminations":[{"castaway_id":2}]}`)

			Convey("Then each is rejected with 400", func() {
				So(badKind.Code, ShouldEqual, http.StatusBadRequest)
				So(noID.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(noID)["field"], ShouldEqual, "request_id")
				So(badPath.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(noPlacement)["field"], ShouldEqual, "eliminations[0].placement")
				So(deps.enqueued, ShouldBeEmpty)
			})
		})
	})
}

func TestRecomputeHandler(t *testing.T) {
	Convey("Given a recompute endpoint", t, func() {
		deps := newMock()
		mux := newMux(deps)

		Convey("When called without a body", func() {
			w := do(mux, http.MethodPost, "/recompute", "")

			Convey("Then a full run is reported", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				out := decode(w)
				So(out["players"], ShouldEqual, float64(3))
				So(out["episode_id"], ShouldBeNil)
				So(deps.scopes[0].EpisodeID, ShouldBeNil)
			})
		})

		Convey("When called with an episode scope", func() {
			w := do(mux, http.MethodPost, "/recompute", `{"episode_id":5}`)

			Convey("Then the scope is passed on", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(*deps.scopes[0].EpisodeID, ShouldEqual, int64(5))
			})
		})

		Convey("When called with a request id", func() {
			w := do(mux, http.MethodPost, "/recompute", `{"request_id":"rc-1"}`)

			Convey("Then the run is queued instead", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(deps.scopes, ShouldBeEmpty)
				So(deps.enqueued[0].Kind, ShouldEqual, model.JobRecompute)
			})
		})

		Convey("When storage fails", func() {
			deps.recomputeErr = fmt.Errorf("%w: write: %w", service.ErrRecomputeFailed, errors.New("connection refused"))
			w := do(mux, http.MethodPost, "/recompute", "{}")

			Convey("Then 503 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(decode(w)["code"], ShouldEqual, "storage_unavailable")
			})
		})
	})
}

func TestPlayersHandler(t *testing.T) {
	Convey("Given the player endpoints", t, func() {
		deps := newMock()
		mux := newMux(deps)

		Convey("When valid picks are submitted", func() {
			w := do(mux, http.MethodPost, "/players/alice/picks", validPicks)

			Convey("Then they are saved", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.submitted, ShouldContainKey, "alice")
			})
		})

		Convey("When a submission breaks a rule", func() {
			body := strings.Replace(validPicks, `"icky_castaway":4`, `"icky_castaway":"4"`, 1)
			w := do(mux, http.MethodPost, "/players/alice/picks", body)

			Convey("Then the field and reason are reported", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				out := decode(w)
				So(out["code"], ShouldEqual, "validation_failed")
				So(out["field"], ShouldEqual, picks.FieldIcky)
			})
		})

		Convey("When the player is unknown", func() {
			deps.submitErr = fmt.Errorf("%w: mallory", service.ErrUnknownPlayer)
			w := do(mux, http.MethodPost, "/players/mallory/picks", validPicks)

			Convey("Then 404 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When a score is read", func() {
			deps.detail = types.PlayerDetail{
				Entry: types.Entry{Rank: 1, PlayerID: "alice", DisplayName: "Alice", TotalPoints: 23},
				Trio:  []types.CastawayPoints{{CastawayID: 1, Points: 6}},
			}
			w := do(mux, http.MethodGet, "/players/alice/score", "")

			Convey("Then the detail is returned flat with its trio", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				out := decode(w)
				So(out["total_points"], ShouldEqual, float64(23))
				So(out["trio"], ShouldHaveLength, 1)
			})
		})

		Convey("When a player has not been scored", func() {
			deps.detailErr = fmt.Errorf("%w: bob", service.ErrNotScored)
			w := do(mux, http.MethodGet, "/players/bob/score", "")

			Convey("Then 404 not_scored is returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decode(w)["code"], ShouldEqual, "not_scored")
			})
		})
	})
}

func TestLeaderboardAndProphecy(t *testing.T) {
	Convey("Given a leaderboard with three rows", t, func() {
		deps := newMock()
		deps.entries = []types.Entry{
			{Rank: 1, PlayerID: "a", TotalPoints: 9},
			{Rank: 2, PlayerID: "b", TotalPoints: 5},
			{Rank: 2, PlayerID: "c", TotalPoints: 5},
		}
		mux := newMux(deps)

		Convey("When a limit is given", func() {
			w := do(mux, http.MethodGet, "/leaderboard?limit=2", "")

			Convey("Then only that many rows are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var rows []types.Entry
				So(json.Unmarshal(w.Body.Bytes(), &rows), ShouldBeNil)
				So(len(rows), ShouldEqual, 2)
				So(deps.limits, ShouldResemble, []int{2})
			})
		})

		Convey("When no limit is given", func() {
			w := do(mux, http.MethodGet, "/leaderboard", "")

			Convey("Then the service default applies", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.limits, ShouldResemble, []int{0})
			})
		})

		Convey("When the limit is not a non-negative integer", func() {
			neg := do(mux, http.MethodGet, "/leaderboard?limit=-3", "")
			word := do(mux, http.MethodGet, "/leaderboard?limit=ten", "")

			Convey("Then 400 is returned", func() {
				So(neg.Code, ShouldEqual, http.StatusBadRequest)
				So(word.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.limits, ShouldBeEmpty)
			})
		})

		Convey("When a prophecy question is resolved and then cleared", func() {
			yes := do(mux, http.MethodPost, "/prophecy/4/resolve", `{"outcome":true}`)
			clearReq := do(mux, http.MethodPost, "/prophecy/5/resolve", `{"outcome":null}`)
			bad := do(mux, http.MethodPost, "/prophecy/17/resolve", `{"outcome":true}`)

			Convey("Then outcomes are passed through and out of range ids fail", func() {
				So(yes.Code, ShouldEqual, http.StatusOK)
				So(*deps.resolved[4], ShouldBeTrue)
				So(clearReq.Code, ShouldEqual, http.StatusOK)
				So(deps.resolved[5], ShouldBeNil)
				So(bad.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}
