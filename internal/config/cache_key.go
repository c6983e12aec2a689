package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionKey returns the cache key holding a BFF session
func (r *CacheKeyStruct) SessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// SessionEventsChannel returns the Redis PubSub channel carrying session changes
func (r *CacheKeyStruct) SessionEventsChannel() string {
	return "session:events"
}

var CacheKey = NewCacheKeyStruct()
