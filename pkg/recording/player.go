// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package recording

import (
	"context"
	"time"

	"github.com/Thermoquad/padlink/pkg/feed"
	"github.com/Thermoquad/padlink/pkg/padproto"
)

// Player replays a recording as a feed.Source, optionally at recorded pace.
type Player struct {
	r     *Reader
	speed float64
	last  time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPlayer replays records from r. speed scales the recorded gaps between
// records (2 plays twice as fast); speed <= 0 replays without delay.
func NewPlayer(r *Reader, speed float64) *Player {
	return &Player{r: r, speed: speed, sleep: sleepCtx}
}

// Next returns the next record as a one-event result. A record that fails
// validation is returned with Err set.
func (p *Player) Next(ctx context.Context) (feed.Result, error) {
	if err := ctx.Err(); err != nil {
		return feed.Result{}, err
	}

	rec, err := p.r.Next()
	if err != nil {
		return feed.Result{}, err
	}

	at := rec.Time()
	if p.speed > 0 && !p.last.IsZero() && at.After(p.last) {
		gap := time.Duration(float64(at.Sub(p.last)) / p.speed)
		if err := p.sleep(ctx, gap); err != nil {
			return feed.Result{}, err
		}
	}
	p.last = at

	res := feed.Result{ReceivedAt: at, Calibrated: rec.Calibrated}
	ev, err := rec.Event()
	if err != nil {
		res.Err = err
		return res, nil
	}
	res.Events = []padproto.Event{ev}
	return res, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
