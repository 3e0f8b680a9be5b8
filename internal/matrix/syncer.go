package matrix

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/pathakanu/remindbot/internal/stopflag"
)

// Snapshot is one successfully parsed sync response. IsLive is false only for
// the first snapshot, which is historical catch-up; consumers filter on it.
type Snapshot struct {
	Response *SyncResponse
	IsLive   bool
}

// SyncResult is one iteration outcome of the sync stream: a snapshot or a
// recoverable error. Cancellation closes the stream instead of appearing here.
type SyncResult struct {
	Snapshot *Snapshot
	Err      error
}

// syncState is the loop-private long-poll state.
//
// isLive is monotonic: false until the first success, true forever after.
// nextBatch only ever advances from the next_batch of a parsed response.
type syncState struct {
	nextBatch string
	isLive    bool
	errored   bool
}

// Syncer drives the long-poll state machine against the homeserver. The
// stream it produces supports exactly one consumer.
type Syncer struct {
	client  *Client
	flag    *stopflag.Flag
	state   syncState
	backoff time.Duration
	logger  zerolog.Logger
}

// NewSyncer creates a syncer that stops when flag is set.
func NewSyncer(client *Client, flag *stopflag.Flag, logger zerolog.Logger) *Syncer {
	return &Syncer{
		client:  client,
		flag:    flag,
		backoff: 5 * time.Second,
		logger:  logger.With().Str("component", "syncer").Logger(),
	}
}

// Stream starts the driver goroutine and returns the snapshot channel. The
// channel is closed once cancellation fires.
func (s *Syncer) Stream() <-chan SyncResult {
	out := make(chan SyncResult)
	go s.run(out)
	return out
}

func (s *Syncer) run(out chan<- SyncResult) {
	defer close(out)
	for {
		snap, err := s.syncOnce()
		if errors.Is(err, stopflag.ErrCancelled) {
			s.logger.Info().Msg("stopping sync stream")
			return
		}

		res := SyncResult{Snapshot: snap, Err: err}
		select {
		case out <- res:
		case <-s.flag.Done():
			s.logger.Info().Msg("stopping sync stream")
			return
		}
	}
}

// syncOnce performs a single iteration: back off if the previous attempt
// failed, issue the request raced against the cancellation flag, and update
// the state machine from the outcome.
func (s *Syncer) syncOnce() (*Snapshot, error) {
	if s.state.errored {
		if err := s.flag.Sleep(s.backoff); err != nil {
			return nil, err
		}
	}

	ctx, cancel := s.flag.Context(context.Background())
	defer cancel()

	resp, err := s.client.sync(ctx, s.state.nextBatch)
	if err != nil {
		if s.flag.IsSet() {
			return nil, stopflag.ErrCancelled
		}
		s.state.errored = true
		return nil, err
	}

	// The snapshot carries isLive as observed before this success, so the
	// catch-up response is distinguishable from real-time ones.
	snap := &Snapshot{Response: resp, IsLive: s.state.isLive}

	s.state.nextBatch = resp.NextBatch
	s.state.isLive = true
	s.state.errored = false

	return snap, nil
}
