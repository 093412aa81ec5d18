package session

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/trickle"
	"github.com/hupe1980/trickle/internal/resource"
	"github.com/hupe1980/trickle/model"
)

// Session is one client's pipeline. All methods are safe for concurrent use.
type Session struct {
	id      string
	dataset string
	created time.Time
	ctrl    *resource.Controller

	mu      sync.Mutex
	sampler *trickle.Sampler
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Dataset returns the name of the dataset the session samples.
func (s *Session) Dataset() string { return s.dataset }

// Created returns the construction time.
func (s *Session) Created() time.Time { return s.created }

// Sample draws the next chunk, waiting for the global sample rate first.
func (s *Session) Sample(ctx context.Context, size int) (model.Chunk, bool, error) {
	if err := s.ctrl.WaitSample(ctx); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	chunk, ok := s.sampler.Sample(ctx, size)
	return chunk, ok, nil
}

// Do runs fn with exclusive access to the session's Sampler.
func (s *Session) Do(fn func(*trickle.Sampler) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.sampler)
}

// Info is a point-in-time description of a session.
type Info struct {
	ID          string         `json:"id"`
	Dataset     string         `json:"dataset"`
	Created     time.Time      `json:"created"`
	DatasetSize int            `json:"dataset_size"`
	Remaining   int            `json:"remaining"`
	Config      trickle.Config `json:"-"`
}

// Info snapshots the session state.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:          s.id,
		Dataset:     s.dataset,
		Created:     s.created,
		DatasetSize: s.sampler.DatasetSize(),
		Remaining:   s.sampler.Remaining(),
		Config:      s.sampler.Config(),
	}
}
