package container

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/stevelaver/developer-portal-sub000/pkg/validator"
	"github.com/yusufsyaifudin/ylog"
	"go.uber.org/multierr"
)

// RedisConnMaker open every configured redis resource once and hand them out by label.
type RedisConnMaker struct {
	conf    ConfigRedisResources
	clients map[string]redis.UniversalClient
	closer  closers
}

func NewRedisConnMaker(ctx context.Context, conf ConfigRedisResources) (*RedisConnMaker, error) {
	instance := &RedisConnMaker{
		conf:    conf,
		clients: map[string]redis.UniversalClient{},
	}

	if err := instance.connect(ctx); err != nil {
		// release the clients opened before the failure
		return nil, multierr.Append(err, instance.Close())
	}

	return instance, nil
}

func (i *RedisConnMaker) connect(ctx context.Context) error {
	for key, connInfo := range i.conf {
		key = strings.TrimSpace(strings.ToLower(key))
		if err := validator.Var(key, "required,alphanum"); err != nil {
			return fmt.Errorf("error connecting to redis key '%s': %w", key, err)
		}

		if len(connInfo.Address) == 0 {
			return fmt.Errorf("redis %s has no address", key)
		}

		var redisClient redis.UniversalClient
		switch connInfo.Mode {
		case "single", "":
			redisClient = redis.NewClient(&redis.Options{
				Addr:     connInfo.Address[0],
				Username: connInfo.Username,
				Password: connInfo.Password,
				DB:       connInfo.DB,
			})

		case "sentinel":
			redisClient = redis.NewFailoverClient(&redis.FailoverOptions{
				SentinelAddrs: connInfo.Address,
				Username:      connInfo.Username,
				Password:      connInfo.Password,
				DB:            connInfo.DB,
				MasterName:    connInfo.MasterName,
			})

		case "cluster":
			// cluster mode is not support DB selection
			redisClient = redis.NewClusterClient(&redis.ClusterOptions{
				Addrs:    connInfo.Address,
				Username: connInfo.Username,
				Password: connInfo.Password,
			})

		default:
			return fmt.Errorf("unknown redis mode: %s", connInfo.Mode)
		}

		i.clients[key] = redisClient
		i.closer.add("redis "+key, redisClient)

		err := redisClient.Ping(ctx).Err()
		if err != nil {
			return fmt.Errorf("error ping redis %s: %w", key, err)
		}

		ylog.Debug(ctx, fmt.Sprintf("redis: %s connected", key), ylog.KV("mode", connInfo.Mode))
	}

	return nil
}

func (i *RedisConnMaker) Get(key string) (redis.UniversalClient, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	v, ok := i.clients[key]
	if !ok {
		return nil, fmt.Errorf("key %s is not found in any redis topology", key)
	}

	return v, nil
}

func (i *RedisConnMaker) Close() error {
	return i.closer.Close()
}
