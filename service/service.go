package service

import (
	"github.com/zlnvch/homegate/cache"
	"github.com/zlnvch/homegate/delegation"
	"github.com/zlnvch/homegate/identity"
	"github.com/zlnvch/homegate/mq"
	"github.com/zlnvch/homegate/remote"
)

type Service struct {
	Identity   *identity.Identity
	Delegation *delegation.Delegation
	Cache      cache.SessionCache
	MQ         mq.MessageQueue
	Remote     remote.Authority

	ServerOrigin string
	StoreURL     string
	DBURL        string
}

func NewService(
	identity *identity.Identity,
	delegation *delegation.Delegation,
	sessionCache cache.SessionCache,
	messageQueue mq.MessageQueue,
	remoteAuthority remote.Authority,
	serverOrigin string,
	storeURL string,
	dbURL string,
) *Service {
	return &Service{
		Identity:     identity,
		Delegation:   delegation,
		Cache:        sessionCache,
		MQ:           messageQueue,
		Remote:       remoteAuthority,
		ServerOrigin: serverOrigin,
		StoreURL:     storeURL,
		DBURL:        dbURL,
	}
}
