package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Engine converts a bounded PCM buffer into text. Engines report their own
// availability so callers can degrade instead of failing when no model is
// loaded.
type Engine interface {
	Name() string
	Available() bool
	Transcribe(ctx context.Context, audio []byte, sampleRate int) (string, error)
}

type Factory func(args interface{}) (Engine, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(name string, args interface{}) (Engine, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = "none"
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported stt engine: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode stt engine config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode stt engine config: %w", err)
	}
	return nil
}

type noneEngine struct{}

func (e *noneEngine) Name() string {
	return "none"
}

func (e *noneEngine) Available() bool {
	return false
}

func (e *noneEngine) Transcribe(ctx context.Context, audio []byte, sampleRate int) (string, error) {
	_ = ctx
	_ = audio
	_ = sampleRate
	return "", nil
}

func init() {
	Register("none", func(args interface{}) (Engine, error) {
		return &noneEngine{}, nil
	})
}
