package publisher

import (
	"context"
	"encoding/base64"
	"math/rand/v2"
	"strconv"

	"github.com/redis/go-redis/v9"

	"sjsage522/jobofferworker/logger"
	scrapeerrors "sjsage522/jobofferworker/pkg/errors"
)

const redisSource = "redis"

// RedisPublisher implements Publisher using Redis streams
type RedisPublisher struct {
	client          *redis.Client
	ctx             context.Context
	streamPrefix    string
	streamCount     int
	streamMaxLength int
	log             *logger.Logger
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(ctx context.Context, addr string, db int, streamPrefix string, streamCount int, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	if streamCount <= 0 {
		streamCount = 1
	}

	return &RedisPublisher{
		client:          client,
		ctx:             ctx,
		streamPrefix:    streamPrefix,
		streamCount:     streamCount,
		streamMaxLength: streamMaxLength,
		log:             logger.ForPublisher().WithField("prefix", streamPrefix),
	}
}

// Ping checks that Redis is reachable
func (p *RedisPublisher) Ping() error {
	if err := p.client.Ping(p.ctx).Err(); err != nil {
		return scrapeerrors.NewPublisher(redisSource, "ping", err)
	}
	return nil
}

// Stream returns the stream a message will be written to.
// With streamCount 10 the names are prefix:0 ~ prefix:9.
func (p *RedisPublisher) Stream() string {
	return p.streamPrefix + ":" + strconv.Itoa(rand.IntN(p.streamCount))
}

// Publish appends a message to one of the streams under the given field key.
// The message is base64 encoded before publishing.
func (p *RedisPublisher) Publish(key string, message []byte) error {
	encodedMessage := base64.StdEncoding.EncodeToString(message)
	stream := p.Stream()

	id, err := p.client.XAdd(p.ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			key: encodedMessage,
		},
	}).Result()
	if err != nil {
		return scrapeerrors.NewPublisher(redisSource, "xadd "+stream, err)
	}

	p.log.Debug().Str("stream", stream).Str("id", id).Int("bytes", len(message)).Msg("Message published")
	return nil
}

// TrimStreams trims all streams to the configured maximum length
func (p *RedisPublisher) TrimStreams() error {
	if p.streamMaxLength <= 0 {
		return nil
	}

	for i := 0; i < p.streamCount; i++ {
		stream := p.streamPrefix + ":" + strconv.Itoa(i)
		if err := p.client.XTrimMaxLen(p.ctx, stream, int64(p.streamMaxLength)).Err(); err != nil {
			return scrapeerrors.NewPublisher(redisSource, "xtrim "+stream, err)
		}
	}

	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
