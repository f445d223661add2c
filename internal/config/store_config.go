package config

import "strings"

const (
	storeVar       = "STORE"
	databaseURLVar = "DATABASE_URL"
	redisAddrVar   = "REDIS_ADDR"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type StoreConfig interface {
	GetStore() string
	GetDatabaseURL() string
	GetRedisAddr() string
}

type Store struct{ source }

var _ StoreConfig = Store{}

func (s Store) GetStore() string {
	return strings.ToLower(s.get(storeVar, StoreMemory))
}

func (s Store) GetDatabaseURL() string {
	return s.get(databaseURLVar, "")
}

// GetRedisAddr is empty when failed-login limiting is disabled
func (s Store) GetRedisAddr() string {
	return s.get(redisAddrVar, "")
}
