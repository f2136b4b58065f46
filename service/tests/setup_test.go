package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	cachemocks "github.com/zlnvch/homegate/cache/mocks"
	"github.com/zlnvch/homegate/delegation"
	"github.com/zlnvch/homegate/identity"
	mqmocks "github.com/zlnvch/homegate/mq/mocks"
	remotemocks "github.com/zlnvch/homegate/remote/mocks"
	"github.com/zlnvch/homegate/service"
	"github.com/zlnvch/homegate/store/memory"
)

const (
	testOrigin   = "https://home.example"
	testStoreURL = "https://store.example"
	testDBURL    = "https://db.example"
)

// Helper to setup the service over an in-memory record store with mocked
// cache, queue, and remote authority.
func setupService(t *testing.T) (*service.Service, *memory.MemoryRecordStore, *cachemocks.MockCache, *mqmocks.MockMQ, *remotemocks.MockAuthority) {
	return setupServiceTTL(t, 168*time.Hour, 5*time.Minute, nil)
}

func setupServiceTTL(t *testing.T, sessionTTL, handshakeTTL time.Duration, whitelist []string) (*service.Service, *memory.MemoryRecordStore, *cachemocks.MockCache, *mqmocks.MockMQ, *remotemocks.MockAuthority) {
	t.Helper()

	recordStore := memory.NewMemoryRecordStore()
	mockCache := new(cachemocks.MockCache)
	mockMQ := new(mqmocks.MockMQ)
	mockRemote := new(remotemocks.MockAuthority)

	// Most tests only care about the store's state; keep the cache a
	// transparent miss unless a test overrides these.
	mockCache.On("GetSession", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil).Maybe()
	mockCache.On("SetSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	mockCache.On("InvalidateSessions", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	idn := identity.New(recordStore, sessionTTL, whitelist)
	del := delegation.New(recordStore, handshakeTTL, sessionTTL, idn.SessionExists)

	svc := service.NewService(
		idn,
		del,
		mockCache,
		mockMQ,
		mockRemote,
		testOrigin,
		testStoreURL,
		testDBURL,
	)

	return svc, recordStore, mockCache, mockMQ, mockRemote
}
