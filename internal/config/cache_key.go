package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// HistoryKey returns the storage key holding a client's serialized quiz history.
// The prefix matches the browser storage key used by the web client.
func (r *CacheKeyStruct) HistoryKey(clientID string) string {
	return fmt.Sprintf("geminiQuizHistory:%s", clientID)
}

// ClientRateKey returns the limiter bucket name for a client's generation requests.
func (r *CacheKeyStruct) ClientRateKey(clientID string) string {
	return fmt.Sprintf("client:%s:generate", clientID)
}

var CacheKey = NewCacheKeyStruct()
