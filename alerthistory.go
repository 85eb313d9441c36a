// FILE: alerthistory.go
// Package main – Alert History Store (C10): persisted {symbol: {target:
// last-sent-date}} map, serialized single-writer access (§4.10/§5).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/redis/go-redis/v9"
)

// AlertHistoryStore records the last date an alert for (symbol, target)
// was sent, so the monitor can dedupe repeat alerts.
type AlertHistoryStore interface {
	LastSent(ctx context.Context, symbol, target string) (string, bool, error)
	MarkSent(ctx context.Context, symbol, target, date string) error
}

// redisAlertHistoryStore is the Redis backend: one hash key per symbol,
// fields keyed by target level, values the last-sent date string.
type redisAlertHistoryStore struct {
	client *redis.Client
}

func newRedisAlertHistoryStore(addr string) *redisAlertHistoryStore {
	return &redisAlertHistoryStore{client: redis.NewClient(&redis.Options{Addr: addr})}
}

func (s *redisAlertHistoryStore) hashKey(symbol string) string {
	return "alert-history:" + symbol
}

func (s *redisAlertHistoryStore) LastSent(ctx context.Context, symbol, target string) (string, bool, error) {
	v, err := s.client.HGet(ctx, s.hashKey(symbol), target).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *redisAlertHistoryStore) MarkSent(ctx context.Context, symbol, target, date string) error {
	return s.client.HSet(ctx, s.hashKey(symbol), target, date).Err()
}

// fileAlertHistoryStore is the file backend (the default): a JSON file
// guarded by a single mutex, mirroring
// crypto_realtime_monitor.py's load_alert_history/save_alert_history.
type fileAlertHistoryStore struct {
	path string
	mu   sync.Mutex
	data map[string]map[string]string
}

func newFileAlertHistoryStore(path string) (*fileAlertHistoryStore, error) {
	s := &fileAlertHistoryStore{path: path, data: map[string]map[string]string{}}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *fileAlertHistoryStore) load() error {
	b, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, &s.data)
}

func (s *fileAlertHistoryStore) saveLocked() error {
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o644)
}

func (s *fileAlertHistoryStore) LastSent(ctx context.Context, symbol, target string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sym, ok := s.data[symbol]
	if !ok {
		return "", false, nil
	}
	v, ok := sym[target]
	return v, ok, nil
}

func (s *fileAlertHistoryStore) MarkSent(ctx context.Context, symbol, target, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[symbol] == nil {
		s.data[symbol] = map[string]string{}
	}
	s.data[symbol][target] = date
	return s.saveLocked()
}

// newAlertHistoryStore selects a backend per cfg.AlertHistoryBackend: "file"
// or empty (the config default) uses the JSON file; "redis" requires
// RedisAddr and returns an error without it.
func newAlertHistoryStore(cfg Config) (AlertHistoryStore, error) {
	switch cfg.AlertHistoryBackend {
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("alert history backend redis requires RedisAddr")
		}
		return newRedisAlertHistoryStore(cfg.RedisAddr), nil
	case "file", "":
		return newFileAlertHistoryStore(cfg.AlertHistoryFile)
	default:
		return nil, fmt.Errorf("unknown alert history backend %q", cfg.AlertHistoryBackend)
	}
}
