package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/linkcut/linkcut/internal/app/server"
	"github.com/linkcut/linkcut/internal/app/service"
	"github.com/linkcut/linkcut/internal/cache"
	"github.com/linkcut/linkcut/internal/config"
	"github.com/linkcut/linkcut/internal/logger"
	"github.com/linkcut/linkcut/internal/qr"
	"github.com/linkcut/linkcut/internal/repository"
	"github.com/linkcut/linkcut/internal/storage"
	"github.com/linkcut/linkcut/internal/worker"

	_ "net/http/pprof"
)

var buildVersion string
var buildDate string
var buildCommit string

func main() {
	options := config.Parse()

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)

	log := logger.New()
	defer func() {
		_ = log.Log.Sync()
	}()

	if err := log.Init(options.LogLevel); err != nil {
		panic(err)
	}
	zapLogger := log.Log

	if options.EnablePprof {
		go func() {
			zapLogger.Info("Starting pprof server", zap.String("addr", "localhost:6060"))
			if err := http.ListenAndServe("localhost:6060", nil); err != nil {
				zapLogger.Error("pprof server error", zap.Error(err))
			}
		}()
	}

	var store service.Store

	if options.DatabaseDSN != "" {
		zapLogger.Info("using postgres store")
		db := repository.InitDB(options.DatabaseDSN, zapLogger)
		defer db.Close()
		store = repository.CreateURLRepository(db, zapLogger)
		zapLogger.Info("Database connected and schema ready.")
	} else {
		zapLogger.Info("using in memory store")
		store = storage.CreateMemoryStore()
	}

	var c cache.Cache

	if options.RedisAddress != "" {
		redisCache, err := cache.NewRedis(context.Background(), options.RedisAddress)
		if err != nil {
			panic(err)
		}
		zapLogger.Info("using redis cache", zap.String("addr", options.RedisAddress))
		c = redisCache
	} else {
		zapLogger.Info("using in memory cache")
		c = cache.NewMemory()
	}

	clickWorker := worker.NewClickWorker(zapLogger, store, c)
	go clickWorker.Run()

	urlService := service.NewURL(store, c, qr.NewRenderer(), zapLogger, options.ResultHostname)
	resolver := service.NewResolver(store, c, zapLogger, clickWorker.GetInChannel())
	auth := service.NewAuth()

	r := server.Init(resolver, urlService, auth, options.ResultHostname, zapLogger)

	if options.EnableHTTPS {
		manager := &autocert.Manager{
			Cache:  autocert.DirCache("cache-dir"),
			Prompt: autocert.AcceptTOS,
		}
		srv := &http.Server{
			Addr:      ":443",
			Handler:   r,
			TLSConfig: manager.TLSConfig(),
		}
		zapLogger.Info("Server is running with TLS", zap.String("hostname", options.Port))
		if err := srv.ListenAndServeTLS("", ""); err != nil {
			panic(err)
		}
	} else {
		zapLogger.Info("Server is running", zap.String("hostname", options.Port))
		if err := http.ListenAndServe(options.Port, r); err != nil {
			panic(err)
		}
	}
}
