package config

const (
	mongoURIVar   = "MONGO_URI"
	databaseVar   = "DATABASE_NAME"
	kvBackendVar  = "KV_BACKEND"
	redisURLVar   = "REDIS_URL"
	badgerPathVar = "BADGER_PATH"
)

// Key-value backends for the revocation store and OTP attempt counters.
const (
	KVBackendRedis  = "redis"
	KVBackendBadger = "badger"
	KVBackendMemory = "memory"
)

type StoreConfig interface {
	GetMongoURI() string
	GetDatabaseName() string
	GetKVBackend() string
	GetRedisURL() string
	GetBadgerPath() string
}

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetMongoURI() string {
	return GetEnv(mongoURIVar, "")
}

func (Store) GetDatabaseName() string {
	return GetEnv(databaseVar, "ONLINE_ENTERTAINMENT_PLATFORM")
}

func (Store) GetKVBackend() string {
	return GetEnv(kvBackendVar, KVBackendRedis)
}

func (Store) GetRedisURL() string {
	return GetEnv(redisURLVar, "")
}

func (Store) GetBadgerPath() string {
	return GetEnv(badgerPathVar, "./data/kv")
}
