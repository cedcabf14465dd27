package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/banshee-data/geoclaim/internal/geo"
	"github.com/banshee-data/geoclaim/internal/monitoring"
)

// DefaultFixTTL bounds how long the last published fix seeds a new reader.
const DefaultFixTTL = 30 * time.Second

// ConnectRedis returns a client for addr, or nil when addr is empty.
func ConnectRedis(addr, password string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}

func fixKey(device string) string {
	return "geoclaim:" + device + ":fix"
}

func fixChannel(device string) string {
	return "geoclaim:" + device + ":fixes"
}

// RedisSource follows the fixes a device publishes through redis. The last
// fix is kept under a key so a late reader starts from a known position;
// later fixes arrive over pub/sub.
type RedisSource struct {
	client *redis.Client
	device string
	out    *Mailbox
}

// NewRedisSource reads fixes published for device and puts them into out.
func NewRedisSource(client *redis.Client, device string, out *Mailbox) *RedisSource {
	return &RedisSource{client: client, device: device, out: out}
}

// Run seeds the mailbox from the stored fix and then forwards published
// fixes until ctx is cancelled.
func (r *RedisSource) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, fixChannel(r.device))
	defer pubsub.Close()

	// wait for the subscription so nothing published after the seed is lost
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", fixChannel(r.device), err)
	}

	raw, err := r.client.Get(ctx, fixKey(r.device)).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return fmt.Errorf("get %s: %w", fixKey(r.device), err)
	default:
		r.deliver(raw)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.deliver(msg.Payload)
		}
	}
}

func (r *RedisSource) deliver(payload string) {
	var fix geo.Fix
	if err := json.Unmarshal([]byte(payload), &fix); err != nil {
		monitoring.Logf("redis source %s: bad fix payload: %v", r.device, err)
		return
	}
	if fix.Source == "" {
		fix.Source = "redis:" + r.device
	}
	r.out.Put(fix)
}

// RedisPublisher is the writing side of RedisSource, used by gateways that
// relay fixes from a device.
type RedisPublisher struct {
	client *redis.Client
	device string
	ttl    time.Duration
}

// NewRedisPublisher publishes fixes for device. A non-positive ttl uses
// DefaultFixTTL.
func NewRedisPublisher(client *redis.Client, device string, ttl time.Duration) *RedisPublisher {
	if ttl <= 0 {
		ttl = DefaultFixTTL
	}
	return &RedisPublisher{client: client, device: device, ttl: ttl}
}

// Publish stores fix as the device's last position and broadcasts it.
func (p *RedisPublisher) Publish(ctx context.Context, fix geo.Fix) error {
	payload, err := json.Marshal(fix)
	if err != nil {
		return err
	}
	pipe := p.client.TxPipeline()
	pipe.Set(ctx, fixKey(p.device), payload, p.ttl)
	pipe.Publish(ctx, fixChannel(p.device), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish fix for %s: %w", p.device, err)
	}
	return nil
}

// Forward returns a Mailbox.OnPut hook that republishes each fix. Failures
// are logged and the fix is still delivered locally.
func (p *RedisPublisher) Forward(ctx context.Context) func(geo.Fix) {
	return func(fix geo.Fix) {
		if err := p.Publish(ctx, fix); err != nil {
			monitoring.Logf("redis: %v", err)
		}
	}
}
