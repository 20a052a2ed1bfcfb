package main

import (
	"context"

	"herald/internal/platform/config"
	"herald/internal/platform/logger"
	phttp "herald/internal/platform/net/http"
	"herald/internal/platform/store"

	"herald/internal/services/api"
)

func main() {
	root := config.New()

	pgCfg := root.Prefix("PG_")
	chCfg := root.Prefix("CH_")
	rdCfg := root.Prefix("REDIS_")

	l := logger.Get()

	st, err := store.Open(context.Background(), store.Config{
		AppName: "herald-api",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			// audit trail is optional; the sink degrades to a no-op without it
			Enabled: chCfg.MayBool("ENABLED", false),
			URL:     chCfg.MayString("DBURL", ""),
		},
		RD: store.RedisConfig{
			Enabled:  true,
			Addr:     rdCfg.MustString("ADDR"),
			Password: rdCfg.MayString("PASSWORD", ""),
			DB:       rdCfg.MayInt("DB", 0),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// http server (reads API_PORT)
	srv := phttp.NewServer(root)

	api.Mount(srv.Router(), api.Options{
		Config: root,
		Store:  st,
		Logger: l,
	})

	if err := srv.Run(context.Background()); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
