package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Notifier is the mirror's change feed. Subscribe returns a channel that
// receives a signal after changes to table; signals may coalesce.
type Notifier interface {
	Publish(ctx context.Context, table string)
	Subscribe(ctx context.Context, table string) (<-chan struct{}, func())
}

// LocalNotifier delivers change signals within the process.
type LocalNotifier struct {
	mu        sync.Mutex
	listeners map[string]map[int]chan struct{}
	next      int
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{listeners: make(map[string]map[int]chan struct{})}
}

func (n *LocalNotifier) Publish(_ context.Context, table string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.listeners[table] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (n *LocalNotifier) Subscribe(_ context.Context, table string) (<-chan struct{}, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.next++
	key := n.next
	ch := make(chan struct{}, 1)
	if n.listeners[table] == nil {
		n.listeners[table] = make(map[int]chan struct{})
	}
	n.listeners[table][key] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners[table], key)
			n.mu.Unlock()
		})
	}
}

// Count reports registered listeners for table.
func (n *LocalNotifier) Count(table string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners[table])
}

// RedisNotifier shares change signals between instances that use the same
// mirror database, over Redis pub/sub.
type RedisNotifier struct {
	client *redis.Client
	prefix string
}

// ConnectRedis accepts a redis:// URL or a bare host:port.
func ConnectRedis(redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client, prefix: "eventcenter:mirror:"}
}

func (n *RedisNotifier) Publish(ctx context.Context, table string) {
	if err := n.client.Publish(ctx, n.prefix+table, "changed").Err(); err != nil {
		slog.Warn("mirror change publish failed", "table", table, "error", err)
	}
}

func (n *RedisNotifier) Subscribe(ctx context.Context, table string) (<-chan struct{}, func()) {
	ctx, cancel := context.WithCancel(ctx)
	ps := n.client.Subscribe(ctx, n.prefix+table)
	out := make(chan struct{}, 1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	var once sync.Once
	return out, func() {
		once.Do(func() {
			cancel()
			_ = ps.Close()
			<-done
		})
	}
}

func (n *RedisNotifier) Ping(ctx context.Context) error {
	return n.client.Ping(ctx).Err()
}
