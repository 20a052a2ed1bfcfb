package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"

	"herald/internal/modkit"
	"herald/internal/modkit/module"
	"herald/internal/platform/config"
	"herald/internal/platform/logger"
	"herald/internal/platform/store"

	"herald/internal/core/apjson"
	accmod "herald/internal/services/accounts/module"
	ingdom "herald/internal/services/ingest/domain"
	ingestmod "herald/internal/services/ingest/module"
)

// line is one NDJSON input record
type line struct {
	Username string         `json:"username"`
	Domain   string         `json:"domain"`
	Document map[string]any `json:"document"`
}

func main() {
	root := config.New()
	pgCfg := root.Prefix("PG_")
	chCfg := root.Prefix("CH_")
	rdCfg := root.Prefix("REDIS_")

	l := logger.Get()

	var (
		fFile      = flag.String("file", "-", "NDJSON actor documents, - for stdin")
		fRequestID = flag.String("request-id", "", "cascade id shared by every line (budget scope)")
		fKeyOnly   = flag.Bool("key-only", false, "refresh signing keys only, never create accounts")
	)
	flag.Parse()

	st, err := store.Open(context.Background(), store.Config{
		AppName: "herald-ingest",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
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

	deps := modkit.Deps{
		Cfg: root,
		Log: *l,
		PG:  st.PG,
		CH:  st.CH,
		RD:  st.RD,
	}

	accounts := accmod.New(deps)
	module.Register(accounts.Name(), accounts.Ports())
	accPorts := module.MustPortsOf[accmod.Ports](accounts)

	mod := ingestmod.New(deps, ingestmod.Injected{Accounts: accPorts})
	module.Register(mod.Name(), mod.Ports())
	ports := module.MustPortsOf[ingestmod.Ports](mod)

	var in io.Reader = os.Stdin
	if *fFile != "-" {
		f, err := os.Open(*fFile)
		if err != nil {
			l.Fatal().Err(err).Str("file", *fFile).Msg("cannot open input")
		}
		defer func() {
			if err := f.Close(); err != nil {
				l.Error().Err(err).Msg("failed to close input")
			}
		}()
		in = f
	}

	if err := run(context.Background(), ports.Ingest, in, *fRequestID, *fKeyOnly, l); err != nil {
		l.Fatal().Err(err).Msg("ingest run failed")
	}
}

func run(
	ctx context.Context,
	ingest ingdom.IngestPort,
	in io.Reader,
	requestID string,
	keyOnly bool,
	l *logger.Logger,
) error {
	sc := bufio.NewScanner(in)
	// actor documents with inline emoji and fields can run long
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var total, accepted int
	for sc.Scan() {
		raw := sc.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		var ln line
		if err := json.Unmarshal(raw, &ln); err != nil {
			l.Warn().Err(err).Msg("skipping malformed line")
			continue
		}
		total++
		acc, err := ingest.Ingest(ctx, ln.Username, ln.Domain, apjson.Doc(ln.Document), ingdom.Options{
			RequestID:      requestID,
			OnlyKeyRefresh: keyOnly,
		})
		if err != nil {
			l.Error().Err(err).Str("username", ln.Username).Str("domain", ln.Domain).Msg("ingest failed")
			continue
		}
		if acc != nil {
			accepted++
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	l.Info().Int("lines", total).Int("accepted", accepted).Msg("ingest run complete")
	return nil
}
