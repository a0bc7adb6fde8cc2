package email

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const mockEmailTTL = 5 * time.Minute

// RedisSender implements the Sender interface by storing emails in Redis.
// Integration tests read them back from mockemail:<recipient>:<kind>.
type RedisSender struct {
	client *redis.Client
	from   string
}

// NewRedisSender creates a new RedisSender
func NewRedisSender(client *redis.Client, from string) *RedisSender {
	return &RedisSender{client: client, from: from}
}

// MockEmailKey returns the Redis key a message of kind to recipient is stored under.
func MockEmailKey(recipient, kind string) string {
	return fmt.Sprintf("mockemail:%s:%s", recipient, kind)
}

func messageKind(subject string) string {
	switch {
	case strings.HasPrefix(subject, ContactSubjectPrefix):
		return "contact"
	default:
		return "unknown"
	}
}

func (s *RedisSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	primaryTo := ""
	if len(to) > 0 {
		primaryTo = to[0]
	}
	kind := messageKind(subject)

	emailData := map[string]interface{}{
		"to":      strings.Join(to, ", "),
		"from":    s.from,
		"subject": subject,
		"body":    string(rawMessage),
		"sent_at": time.Now().UTC().Format(time.RFC3339Nano),
		"kind":    kind,
	}

	jsonData, err := json.Marshal(emailData)
	if err != nil {
		return fmt.Errorf("failed to marshal email data: %w", err)
	}

	key := MockEmailKey(primaryTo, kind)
	if err := s.client.Set(ctx, key, jsonData, mockEmailTTL).Err(); err != nil {
		return fmt.Errorf("failed to store email in Redis key '%s': %w", key, err)
	}

	log.Debug().Str("key", key).Str("subject", subject).Msg("Mock email stored in Redis")
	return nil
}
