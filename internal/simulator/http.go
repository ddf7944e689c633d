package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/outwit/internal/domain/model"
	"github.com/okian/outwit/internal/domain/points"
	"github.com/okian/outwit/internal/domain/types"
	"github.com/okian/outwit/pkg/logger"
)

// client talks to one outwit server.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{http: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

// do sends body as JSON and decodes the response into out when it is non-nil.
// It returns the status code.
func (c *client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var rd io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if out != nil && resp.StatusCode < http.StatusBadRequest {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

func expect(status int, want ...int) error {
	for _, w := range want {
		if status == w {
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrUnexpectedStatus, status)
}

type ack struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type picksBody struct {
	Trio1    int64           `json:"trio_castaway_1"`
	Trio2    int64           `json:"trio_castaway_2"`
	Trio3    int64           `json:"trio_castaway_3"`
	Icky     int64           `json:"icky_castaway"`
	Prophecy map[string]bool `json:"prophecy_answers"`
}

type finalizeEvent struct {
	CastawayID int64            `json:"castaway_id"`
	Kind       points.EventKind `json:"kind"`
}

type finalizeElimination struct {
	CastawayID int64            `json:"castaway_id"`
	Placement  points.Placement `json:"placement"`
	BootOrder  int              `json:"boot_order"`
}

type finalizeBody struct {
	RequestID    string                `json:"request_id"`
	Events       []finalizeEvent       `json:"events"`
	Eliminations []finalizeElimination `json:"eliminations"`
}

// submitPicks posts every player's picks using cfg.Workers goroutines.
func submitPicks(ctx context.Context, c *client, cfg *Config, sc *Scenario, stats *Stats) error {
	answers := make(map[string]map[string]bool, len(sc.Picks))
	for _, a := range sc.Answers {
		if answers[a.PlayerID] == nil {
			answers[a.PlayerID] = make(map[string]bool, points.LastQuestion)
		}
		answers[a.PlayerID][strconv.Itoa(a.QuestionID)] = a.Answer
	}

	workers := max(cfg.Workers, 1)
	var (
		ok     int64
		failed int64
		wg     sync.WaitGroup
	)
	ch := make(chan model.Picks, workers*2)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range ch {
				body := picksBody{Trio1: p.Trio[0], Trio2: p.Trio[1], Trio3: p.Trio[2], Icky: p.Icky, Prophecy: answers[p.PlayerID]}
				status, err := c.do(ctx, http.MethodPost, "/players/"+p.PlayerID+"/picks", body, nil)
				if err == nil {
					err = expect(status, http.StatusOK)
				}
				if err != nil {
					atomic.AddInt64(&failed, 1)
					cfg.log().Warn(ctx, "picks rejected", logger.String("player_id", p.PlayerID), logger.Error(err))
					continue
				}
				atomic.AddInt64(&ok, 1)
			}
		}()
	}

	go func() {
		defer close(ch)
		for _, p := range sc.Picks {
			select {
			case <-ctx.Done():
				return
			case ch <- p:
			}
		}
	}()
	wg.Wait()

	stats.PicksSubmitted = int(atomic.LoadInt64(&ok))
	stats.PicksFailed = int(atomic.LoadInt64(&failed))
	if err := ctx.Err(); err != nil {
		return err
	}
	if stats.PicksFailed > 0 {
		return fmt.Errorf("%d of %d picks rejected", stats.PicksFailed, len(sc.Picks))
	}
	return nil
}

// finalize queues one episode. Repeating requestID must be acknowledged as
// a duplicate; the returned bool reports whether it was.
func finalize(ctx context.Context, c *client, ep Episode, requestID string) (bool, error) {
	body := finalizeBody{RequestID: requestID}
	for _, ev := range ep.Events {
		body.Events = append(body.Events, finalizeEvent{CastawayID: ev.CastawayID, Kind: ev.Kind})
	}
	for _, el := range ep.Eliminations {
		body.Eliminations = append(body.Eliminations, finalizeElimination(el))
	}
	var a ack
	status, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/episodes/%d/finalize", ep.ID), body, &a)
	if err != nil {
		return false, err
	}
	if err := expect(status, http.StatusAccepted, http.StatusOK); err != nil {
		return false, fmt.Errorf("finalize episode %d: %w", ep.ID, err)
	}
	return a.Duplicate, nil
}

func resolve(ctx context.Context, c *client, o model.ProphecyOutcome) error {
	status, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/prophecy/%d/resolve", o.QuestionID), map[string]*bool{"outcome": o.Outcome}, nil)
	if err != nil {
		return err
	}
	if err := expect(status, http.StatusOK); err != nil {
		return fmt.Errorf("resolve question %d: %w", o.QuestionID, err)
	}
	return nil
}

// waitProcessed polls /stats until jobs_processed reaches want. Any failed
// job ends the wait.
func waitProcessed(ctx context.Context, c *client, want int64, wait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		var stats struct {
			JobsProcessed int64 `json:"jobs_processed"`
			JobsFailed    int64 `json:"jobs_failed"`
		}
		if _, err := c.do(ctx, http.MethodGet, "/stats", nil, &stats); err == nil {
			if stats.JobsFailed > 0 {
				return fmt.Errorf("%d queued jobs failed", stats.JobsFailed)
			}
			if stats.JobsProcessed >= want {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: want %d processed", ErrTimeout, want)
		case <-ticker.C:
		}
	}
}

func recompute(ctx context.Context, c *client) error {
	status, err := c.do(ctx, http.MethodPost, "/recompute", nil, nil)
	if err != nil {
		return err
	}
	return expect(status, http.StatusOK)
}

func leaderboard(ctx context.Context, c *client) ([]types.Entry, error) {
	var rows []types.Entry
	status, err := c.do(ctx, http.MethodGet, "/leaderboard", nil, &rows)
	if err != nil {
		return nil, err
	}
	if err := expect(status, http.StatusOK); err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return rows, nil
}
