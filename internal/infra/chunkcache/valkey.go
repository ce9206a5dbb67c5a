package chunkcache

import (
	"context"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/ai-booksum/internal/domain/booksum"
)

// Valkey persists chunk summaries in a Valkey-compatible database so
// repeated runs on unchanged books skip model calls across restarts.
type Valkey struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkey constructs the store. A zero ttl keeps entries until evicted by
// the server.
func NewValkey(client valkey.Client, prefix string, ttl time.Duration) *Valkey {
	if prefix == "" {
		prefix = "booksum:chunk"
	}
	return &Valkey{client: client, prefix: prefix, ttl: ttl}
}

// Get implements booksum.SummaryCache.
func (s *Valkey) Get(ctx context.Context, key string) (string, bool, error) {
	cmd := s.client.B().Get().Key(s.entryKey(key)).Build()
	summary, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return summary, true, nil
}

// Put implements booksum.SummaryCache.
func (s *Valkey) Put(ctx context.Context, key, summary string) error {
	builder := s.client.B().Set().Key(s.entryKey(key)).Value(summary)
	if s.ttl > 0 {
		return s.client.Do(ctx, builder.Ex(s.ttl).Build()).Error()
	}
	return s.client.Do(ctx, builder.Build()).Error()
}

func (s *Valkey) entryKey(key string) string {
	return s.prefix + ":" + key
}

var _ booksum.SummaryCache = (*Valkey)(nil)
