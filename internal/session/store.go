package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long an untouched workflow survives.
const DefaultTTL = 24 * time.Hour

// Record is the stored session of one actor.
type Record struct {
	Actor     int64
	State     State
	Scratch   Scratch
	UpdatedAt time.Time
}

type recordJSON struct {
	Actor     int64           `json:"actor"`
	State     State           `json:"state"`
	Kind      Kind            `json:"kind,omitempty"`
	Scratch   json.RawMessage `json:"scratch,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// MarshalJSON encodes the record with its scratch kind so it can be
// decoded into the right type.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{Actor: r.Actor, State: r.State, UpdatedAt: r.UpdatedAt}
	if r.Scratch != nil {
		raw, err := json.Marshal(r.Scratch)
		if err != nil {
			return nil, err
		}
		out.Kind = r.Scratch.Kind()
		out.Scratch = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a record written by MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.Actor = in.Actor
	r.State = in.State
	r.UpdatedAt = in.UpdatedAt
	r.Scratch = nil
	if in.Kind != "" {
		s, err := decodeScratch(in.Kind, in.Scratch)
		if err != nil {
			return err
		}
		r.Scratch = s
	}
	return nil
}

// Store keeps session records.
type Store interface {
	// Get returns the record of actor, or nil if there is none or it
	// expired.
	Get(ctx context.Context, actor int64) (*Record, error)

	// Put stores rec and restarts its expiry.
	Put(ctx context.Context, rec *Record) error

	// Delete removes the record of actor.
	Delete(ctx context.Context, actor int64) error

	// Close releases the store's resources.
	Close() error
}

// StoreType selects a Store implementation.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

var (
	// ErrInvalidStoreType is returned by NewStore for unknown drivers.
	ErrInvalidStoreType = errors.New("invalid session store type")

	// ErrInvalidConfig is returned when a driver lacks required options.
	ErrInvalidConfig = errors.New("invalid session store configuration")
)

// StoreOption configures NewStore.
type StoreOption func(*storeConfig)

type storeConfig struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// WithRedisClient sets the client used by the Redis driver.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) { c.redisClient = client }
}

// WithTTL sets how long an untouched record lives.
func WithTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) { c.ttl = ttl }
}

// NewStore creates a store of the given type.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	cfg := &storeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.ttl <= 0 {
		cfg.ttl = DefaultTTL
	}

	switch storeType {
	case StoreTypeMemory, "":
		return NewMemoryStore(cfg.ttl), nil
	case StoreTypeRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		return NewRedisStore(cfg.redisClient, cfg.ttl), nil
	default:
		return nil, ErrInvalidStoreType
	}
}
