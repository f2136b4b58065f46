package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/zlnvch/homegate/api"
	"github.com/zlnvch/homegate/cache/redis"
	"github.com/zlnvch/homegate/config"
	"github.com/zlnvch/homegate/mq/sqsmq"
	"github.com/zlnvch/homegate/remote"
	"github.com/zlnvch/homegate/store/dynamo"
)

func main() {
	ctx := context.Background()
	cfg := config.MustLoad()

	recordStore, err := dynamo.NewDynamoRecordStore(ctx, cfg.DevMode, cfg.DynamoDBEndpoint, cfg.DynamoDBTable)
	if err != nil {
		log.Fatalf("Failed to create dynamodb store: %v", err)
	}

	purgeQueue, err := sqsmq.NewSQSMessageQueue(ctx, cfg.DevMode, cfg.SQSEndpoint, cfg.PurgeQueueName)
	if err != nil {
		log.Fatalf("Failed to create SQS MQ: %v", err)
	}

	sessionCache, err := redis.NewRedisSessionCache(ctx, cfg.DevMode, cfg.RedisEndpoint)
	if err != nil {
		log.Fatalf("Failed to create redis cache: %v", err)
	}

	remoteAuthority := remote.NewHTTPAuthority(cfg.RemoteTimeout)

	shutdownCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	homegateAPI := api.NewHomegateAPI(recordStore, purgeQueue, sessionCache, remoteAuthority, cfg, shutdownCtx)

	mux := http.NewServeMux()
	homegateAPI.RegisterRoutes(mux)

	log.Printf("Starting server on host port: %s\n", cfg.HostPort)
	log.Fatal(http.ListenAndServe(":"+cfg.HostPort, mux))
}
