package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tempizhere/shortify/internal/models"
	"go.uber.org/zap"
)

// DefaultRedisPrefix префикс всех ключей сервиса в Redis
const DefaultRedisPrefix = "shortify:"

// Коды, которые возвращают Lua-скрипты вместо данных
const (
	scriptNotFound = -1
	scriptInactive = -2
)

// Ссылка хранится в хэше {prefix}link:{short}; время хранится в миллисекундах Unix,
// чтобы скрипты сравнивали его без разбора строк.
var (
	insertScript = redis.NewScript(`
local key = ARGV[1] .. 'link:' .. ARGV[3]
if redis.call('EXISTS', key) == 1 then
  return 0
end
local id = redis.call('INCR', ARGV[1] .. 'links:seq')
redis.call('HSET', key, 'id', id, 'original', ARGV[2], 'short', ARGV[3], 'created_at', ARGV[5],
  'hit_count', 0, 'expiration', '', 'suspended', 0, 'owner_id', ARGV[4])
redis.call('SET', ARGV[1] .. 'link:id:' .. id, ARGV[3])
redis.call('ZADD', ARGV[1] .. 'owner:' .. ARGV[4], id, ARGV[3])
redis.call('ZADD', ARGV[1] .. 'links:all', id, ARGV[3])
redis.call('HINCRBY', ARGV[1] .. 'owners:all', ARGV[4], 1)
return id
`)

	incrementScript = redis.NewScript(`
local key = ARGV[1] .. 'link:' .. ARGV[2]
if redis.call('EXISTS', key) == 0 then
  return -1
end
local f = redis.call('HMGET', key, 'suspended', 'expiration')
if f[1] == '1' then
  return -2
end
if f[2] and f[2] ~= '' and tonumber(f[2]) < tonumber(ARGV[3]) then
  return -2
end
return redis.call('HINCRBY', key, 'hit_count', 1)
`)

	suspendScript = redis.NewScript(`
local key = ARGV[1] .. 'link:' .. ARGV[2]
if redis.call('EXISTS', key) == 0 then
  return -1
end
local e = redis.call('HGET', key, 'expiration')
if e and e ~= '' and tonumber(e) < tonumber(ARGV[3]) then
  redis.call('HSET', key, 'suspended', 1)
end
return 0
`)

	updateScript = redis.NewScript(`
local short = redis.call('GET', ARGV[1] .. 'link:id:' .. ARGV[2])
if not short then
  return -1
end
redis.call('HSET', ARGV[1] .. 'link:' .. short, 'suspended', ARGV[3], 'expiration', ARGV[4])
return 0
`)

	deleteScript = redis.NewScript(`
local idKey = ARGV[1] .. 'link:id:' .. ARGV[2]
local short = redis.call('GET', idKey)
if not short then
  return -1
end
local key = ARGV[1] .. 'link:' .. short
local owner = redis.call('HGET', key, 'owner_id') or ''
redis.call('DEL', key, idKey)
redis.call('ZREM', ARGV[1] .. 'owner:' .. owner, short)
redis.call('ZREM', ARGV[1] .. 'links:all', short)
if redis.call('HINCRBY', ARGV[1] .. 'owners:all', owner, -1) <= 0 then
  redis.call('HDEL', ARGV[1] .. 'owners:all', owner)
end
return 0
`)
)

// RedisRepository реализует интерфейс Repository поверх Redis.
// Проверка уникальности, счётчик переходов и приостановка выполняются Lua-скриптами атомарно.
type RedisRepository struct {
	client redis.UniversalClient
	prefix string
	logger *zap.Logger
}

// NewRedisRepository создаёт новый экземпляр RedisRepository и проверяет соединение
func NewRedisRepository(ctx context.Context, client redis.UniversalClient, prefix string, logger *zap.Logger) (*RedisRepository, error) {
	if client == nil {
		return nil, errors.New("redis client is not configured")
	}
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisRepository{client: client, prefix: prefix, logger: logger}, nil
}

func (r *RedisRepository) linkKey(short string) string {
	return r.prefix + "link:" + short
}

func (r *RedisRepository) idKey(id int64) string {
	return r.prefix + "link:id:" + strconv.FormatInt(id, 10)
}

func (r *RedisRepository) ownerKey(ownerID string) string {
	return r.prefix + "owner:" + ownerID
}

// PingContext проверяет соединение с Redis
func (r *RedisRepository) PingContext(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Exists проверяет наличие короткого идентификатора
func (r *RedisRepository) Exists(ctx context.Context, short string) (bool, error) {
	n, err := r.client.Exists(ctx, r.linkKey(short)).Result()
	if err != nil {
		r.logger.Error("Failed to check short id in redis", zap.String("short", short), zap.Error(err))
		return false, err
	}
	return n > 0, nil
}

// Insert сохраняет ссылку, если short ещё не занят
func (r *RedisRepository) Insert(ctx context.Context, original, short, ownerID string) (models.Link, error) {
	created := time.Now().UTC().Truncate(time.Millisecond)
	id, err := insertScript.Run(ctx, r.client, nil,
		r.prefix, original, short, ownerID, created.UnixMilli()).Int64()
	if err != nil {
		r.logger.Error("Failed to save link to redis", zap.String("short", short), zap.Error(err))
		return models.Link{}, err
	}
	if id == 0 {
		return models.Link{}, ErrDuplicateKey
	}
	return models.Link{
		ID:        id,
		Original:  original,
		Short:     short,
		CreatedAt: created,
		OwnerID:   ownerID,
	}, nil
}

// FindByShort возвращает ссылку по короткому идентификатору
func (r *RedisRepository) FindByShort(ctx context.Context, short string) (models.Link, error) {
	fields, err := r.client.HGetAll(ctx, r.linkKey(short)).Result()
	if err != nil {
		r.logger.Error("Failed to get link from redis", zap.String("short", short), zap.Error(err))
		return models.Link{}, err
	}
	if len(fields) == 0 {
		return models.Link{}, ErrNotFound
	}
	return linkFromHash(fields)
}

// FindByID возвращает ссылку по первичному ключу
func (r *RedisRepository) FindByID(ctx context.Context, id int64) (models.Link, error) {
	short, err := r.client.Get(ctx, r.idKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return models.Link{}, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to resolve link id in redis", zap.Int64("id", id), zap.Error(err))
		return models.Link{}, err
	}
	return r.FindByShort(ctx, short)
}

// ListByOwner возвращает ссылки пользователя, новые первыми
func (r *RedisRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Link, error) {
	shorts, err := r.client.ZRevRange(ctx, r.ownerKey(ownerID), 0, -1).Result()
	if err != nil {
		r.logger.Error("Failed to list links in redis", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	if len(shorts) == 0 {
		return nil, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(shorts))
	for i, short := range shorts {
		cmds[i] = pipe.HGetAll(ctx, r.linkKey(short))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	links := make([]models.Link, 0, len(cmds))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// удалена между ZREVRANGE и HGETALL
			continue
		}
		link, err := linkFromHash(fields)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, nil
}

// Update сохраняет флаг приостановки и срок действия
func (r *RedisRepository) Update(ctx context.Context, link models.Link) error {
	suspended := 0
	if link.Suspended {
		suspended = 1
	}
	expiration := ""
	if link.ExpirationDate != nil {
		expiration = strconv.FormatInt(link.ExpirationDate.UnixMilli(), 10)
	}
	res, err := updateScript.Run(ctx, r.client, nil, r.prefix, link.ID, suspended, expiration).Int64()
	if err != nil {
		r.logger.Error("Failed to update link in redis", zap.Int64("id", link.ID), zap.Error(err))
		return err
	}
	if res == scriptNotFound {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет ссылку вместе с индексами
func (r *RedisRepository) Delete(ctx context.Context, id int64) error {
	res, err := deleteScript.Run(ctx, r.client, nil, r.prefix, id).Int64()
	if err != nil {
		r.logger.Error("Failed to delete link in redis", zap.Int64("id", id), zap.Error(err))
		return err
	}
	if res == scriptNotFound {
		return ErrNotFound
	}
	return nil
}

// IncrementHits увеличивает счётчик активной ссылки одним скриптом
func (r *RedisRepository) IncrementHits(ctx context.Context, short string, now time.Time) (models.Link, error) {
	hits, err := incrementScript.Run(ctx, r.client, nil, r.prefix, short, now.UnixMilli()).Int64()
	if err != nil {
		r.logger.Error("Failed to increment hit count in redis", zap.String("short", short), zap.Error(err))
		return models.Link{}, err
	}
	switch hits {
	case scriptNotFound:
		return models.Link{}, ErrNotFound
	case scriptInactive:
		return models.Link{}, ErrInactive
	}
	link, err := r.FindByShort(ctx, short)
	if err != nil {
		return models.Link{}, err
	}
	link.HitCount = hits
	return link, nil
}

// SuspendExpired приостанавливает истёкшую ссылку; повторный вызов ничего не меняет
func (r *RedisRepository) SuspendExpired(ctx context.Context, short string, now time.Time) error {
	res, err := suspendScript.Run(ctx, r.client, nil, r.prefix, short, now.UnixMilli()).Int64()
	if err != nil {
		r.logger.Error("Failed to suspend expired link in redis", zap.String("short", short), zap.Error(err))
		return err
	}
	if res == scriptNotFound {
		return ErrNotFound
	}
	return nil
}

// Stats возвращает количество ссылок и уникальных владельцев
func (r *RedisRepository) Stats(ctx context.Context) (int, int, error) {
	pipe := r.client.Pipeline()
	links := pipe.ZCard(ctx, r.prefix+"links:all")
	owners := pipe.HLen(ctx, r.prefix+"owners:all")
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to get stats from redis", zap.Error(err))
		return 0, 0, err
	}
	return int(links.Val()), int(owners.Val()), nil
}

// Clear удаляет все ключи сервиса
func (r *RedisRepository) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == 100 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		r.logger.Error("Failed to scan redis keys", zap.Error(err))
		return err
	}
	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

// linkFromHash собирает ссылку из полей хэша
func linkFromHash(fields map[string]string) (models.Link, error) {
	id, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil {
		return models.Link{}, err
	}
	created, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return models.Link{}, err
	}
	hits, err := strconv.ParseInt(fields["hit_count"], 10, 64)
	if err != nil {
		return models.Link{}, err
	}
	link := models.Link{
		ID:        id,
		Original:  fields["original"],
		Short:     fields["short"],
		CreatedAt: time.UnixMilli(created).UTC(),
		HitCount:  hits,
		Suspended: fields["suspended"] == "1",
		OwnerID:   fields["owner_id"],
	}
	if raw := fields["expiration"]; raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return models.Link{}, err
		}
		expiration := time.UnixMilli(ms).UTC()
		link.ExpirationDate = &expiration
	}
	return link, nil
}
