package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/zlnvch/homegate/cache"
)

type PurgeMessage struct {
	UserId string `json:"userId"`
}

func (s *Service) EnqueueAccountPurge(ctx context.Context, userId string) error {
	body, err := json.Marshal(PurgeMessage{UserId: userId})
	if err != nil {
		return err
	}
	return s.MQ.Send(ctx, string(body))
}

// PurgeAccount deletes everything a removed user left behind: their apps
// and the sessions issued to them, their own sessions, and their master
// keys. Runs from the purge consumer, after the user record is gone.
func (s *Service) PurgeAccount(ctx context.Context, userId string) error {
	apps, err := s.Delegation.AppsForUser(ctx, userId)
	if err != nil {
		return err
	}
	for _, app := range apps {
		if err := s.deleteAppAndSessions(ctx, app.Id); err != nil {
			return err
		}
	}

	sessions, err := s.Identity.SessionsForUser(ctx, userId)
	if err != nil {
		return err
	}
	if err := s.Identity.DeleteSessions(ctx, sessions); err != nil {
		return err
	}
	if err := s.Cache.InvalidateSessions(ctx, cache.KindUser, sessions); err != nil {
		log.Println("Error invalidating purged sessions:", err)
	}

	// App sessions approved by this user for apps owned by someone else.
	appSessions, err := s.Delegation.AppSessionsForUser(ctx, userId)
	if err != nil {
		return err
	}
	ids := make([]string, len(appSessions))
	for i, session := range appSessions {
		ids[i] = session.Id
	}
	if err := s.Delegation.DeleteAppSessions(ctx, ids); err != nil {
		return err
	}
	if err := s.Cache.InvalidateSessions(ctx, cache.KindApp, ids); err != nil {
		log.Println("Error invalidating purged app sessions:", err)
	}

	keys, err := s.Delegation.MasterKeysForUser(ctx, userId)
	if err != nil {
		return err
	}
	keyIds := make([]string, len(keys))
	for i, key := range keys {
		keyIds[i] = key.Id
	}
	return s.Delegation.DeleteMasterKeys(ctx, keyIds)
}

// SweepExpired is the periodic maintenance pass. Correctness never depends
// on it; the lazy per-access expiry checks still hold if it falls behind.
func (s *Service) SweepExpired(ctx context.Context) error {
	sessions, err := s.Identity.SweepExpiredSessions(ctx)
	if err != nil {
		return err
	}
	if err := s.Cache.InvalidateSessions(ctx, cache.KindUser, sessions); err != nil {
		log.Println("Error invalidating swept sessions:", err)
	}

	appSessions, err := s.Delegation.SweepExpiredAppSessions(ctx)
	if err != nil {
		return err
	}
	if err := s.Cache.InvalidateSessions(ctx, cache.KindApp, appSessions); err != nil {
		log.Println("Error invalidating swept app sessions:", err)
	}

	swept, err := s.Delegation.SweepExpiredHandshakes(ctx)
	if err != nil {
		return err
	}
	if len(sessions)+len(appSessions)+swept > 0 {
		log.Printf("Swept %d sessions, %d app sessions, %d handshakes", len(sessions), len(appSessions), swept)
	}
	return nil
}
