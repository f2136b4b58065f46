package api

import (
	"context"
	"net/http"

	"github.com/zlnvch/homegate/api/rest"
	"github.com/zlnvch/homegate/cache"
	"github.com/zlnvch/homegate/config"
	"github.com/zlnvch/homegate/delegation"
	"github.com/zlnvch/homegate/identity"
	"github.com/zlnvch/homegate/mq"
	"github.com/zlnvch/homegate/remote"
	"github.com/zlnvch/homegate/service"
	"github.com/zlnvch/homegate/store"
	"github.com/zlnvch/homegate/worker"
)

type HomegateAPI struct {
	restHandler *rest.Handler
	shutdownCtx context.Context
}

func NewHomegateAPI(
	recordStore store.RecordStore,
	purgeQueue mq.MessageQueue,
	sessionCache cache.SessionCache,
	remoteAuthority remote.Authority,
	cfg *config.Config,
	shutdownCtx context.Context,
) *HomegateAPI {
	idn := identity.New(recordStore, cfg.SessionTTL, cfg.Whitelist)

	// App-session ids must stay disjoint from user-session ids so the
	// either-mode middleware can resolve without ambiguity.
	del := delegation.New(recordStore, cfg.HandshakeTTL, cfg.SessionTTL, idn.SessionExists)

	svc := service.NewService(
		idn,
		del,
		sessionCache,
		purgeQueue,
		remoteAuthority,
		cfg.ServerOrigin,
		cfg.StoreURL,
		cfg.DBURL,
	)

	sweeper := worker.NewSweeper(svc, cfg.SweepEvery)
	go sweeper.Run(shutdownCtx)

	purgeConsumer := worker.NewPurgeConsumer(purgeQueue, svc)
	go purgeConsumer.Run(shutdownCtx)

	return &HomegateAPI{
		restHandler: rest.NewHandler(svc),
		shutdownCtx: shutdownCtx,
	}
}

func (homegateAPI *HomegateAPI) RegisterRoutes(mux *http.ServeMux) {
	// Health check endpoint (no auth required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	h := homegateAPI.restHandler

	mux.HandleFunc("POST /auth/login", h.HandleLogin)
	mux.HandleFunc("POST /auth/register", h.HandleRegister)
	mux.HandleFunc("GET /auth/can-register", h.HandleCanRegister)
	mux.HandleFunc("POST /auth/change-pass", h.HandleChangePass)
	mux.HandleFunc("POST /auth/logout", h.HandleLogout)
	mux.HandleFunc("GET /auth/refresh", h.HandleRefresh)

	mux.HandleFunc("POST /auth/session", h.HandleExchange)

	mux.HandleFunc("GET /auth/handshake/start", h.HandleHandshakeStart)
	mux.HandleFunc("GET /auth/handshake/{id}", h.HandleHandshakeInfo)
	mux.HandleFunc("GET /auth/handshake/{id}/approve", h.HandleHandshakeApprove)
	mux.HandleFunc("GET /auth/handshake/{id}/cancel", h.HandleHandshakeCancel)

	mux.HandleFunc("GET /auth/master-key", h.HandleListMasterKeys)
	mux.HandleFunc("POST /auth/master-key", h.HandleAddMasterKey)
	mux.HandleFunc("GET /auth/master-key/{id}", h.HandleGetMasterKey)
	mux.HandleFunc("PUT /auth/master-key/{id}", h.HandleUpdateMasterKey)
	mux.HandleFunc("DELETE /auth/master-key/{id}", h.HandleDeleteMasterKey)

	mux.HandleFunc("GET /self", h.HandleGetSelf)
	mux.HandleFunc("DELETE /self", h.HandleDeleteSelf)
	mux.HandleFunc("GET /apps", h.HandleListApps)
	mux.HandleFunc("DELETE /apps/{id}", h.HandleDeleteApp)
	mux.HandleFunc("GET /appsessions", h.HandleListAppSessions)
	mux.HandleFunc("DELETE /appsessions/{id}", h.HandleDeleteAppSession)
}
