package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/johnagbike-dotcom/nesta-server/pkg/auth"
	"github.com/johnagbike-dotcom/nesta-server/pkg/config"
	"github.com/johnagbike-dotcom/nesta-server/pkg/db"
	"github.com/johnagbike-dotcom/nesta-server/pkg/mq"
	"github.com/johnagbike-dotcom/nesta-server/pkg/obs"
	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/gateway"
	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/lock"
	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/repository"
	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/service"
	httpx "github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/transport/http"
	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/webhook"
)

const serviceName = "booking-service"

var log *logrus.Entry

func must[T any](v T, err error) T {
	if err != nil {
		log.WithError(err).Fatal("startup failed")
	}
	return v
}

func main() {
	log = obs.NewLogger(serviceName, os.Getenv("ENV"))
	cfg := must(config.Load())
	log = obs.NewLogger(serviceName, cfg.Env)
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer := must(obs.InitTracer(ctx, serviceName, cfg.Env, cfg.OTLPEndpoint))
	defer shutdownTracer(context.Background())

	// Storage: flat files always, Firestore when a project is configured.
	files := must(repository.NewFileStore(cfg.DataDir))
	var docs repository.DocStore
	if cfg.FirestoreProjectID != "" {
		fs := must(repository.NewFirestoreDocs(ctx, cfg.FirestoreProjectID))
		defer fs.Close()
		docs = fs
		log.WithField("project", cfg.FirestoreProjectID).Info("firestore enabled")
	} else {
		log.Warn("FIRESTORE_PROJECT_ID not set, running on flat files only")
	}
	bookings := repository.NewBookingRepo(docs, files, log)
	dir := repository.NewDirectory(docs, files, log)

	var payouts service.PayoutStore = repository.NewPayoutFileRepo(files)
	if cfg.PGPayoutsDSN != "" {
		gdb := must(db.Open(cfg.PGPayoutsDSN))
		repo := repository.NewPayoutRepo(gdb)
		must(0, repo.Migrate())
		payouts = repo
		log.Info("payout ledger on postgres")
	}

	var locks lock.Locker = lock.NewKeyedMutex()
	if cfg.RedisURL != "" {
		opt := must(redis.ParseURL(cfg.RedisURL))
		rdb := redis.NewClient(opt)
		defer rdb.Close()
		must(0, rdb.Ping(ctx).Err())
		locks = lock.NewRedisLocker(rdb, cfg.LockTTL)
		log.Info("booking locks on redis")
	}

	var pub service.EventPublisher
	if cfg.RabbitURL != "" {
		p := must(mq.NewPublisher(cfg.RabbitURL, cfg.BookingExchange, serviceName))
		defer p.Close()
		pub = p
	} else {
		log.Warn("RABBIT_URL not set, domain events are not published")
	}

	ledger := service.NewLedgerSvc(payouts, bookings, pub, log, cfg.HostSharePercent)
	engine := service.NewBookingSvc(bookings, ledger, dir, locks, pub, log, cfg.HostSharePercent)
	paystack := gateway.NewPaystack(cfg.PaystackSecretKey, "")
	checkout := service.NewCheckoutSvc(bookings, dir, engine, paystack, map[string]service.Verifier{
		"paystack":    paystack,
		"flutterwave": gateway.NewFlutterwave(cfg.FlwSecretKey, ""),
	}, cfg.FrontendURL, pub, log)

	srv := httpx.NewServer(httpx.Deps{
		Verifier: webhook.NewVerifier(webhook.Secrets{
			PaystackSecretKey: cfg.PaystackSecretKey,
			FlwVerifHash:      cfg.FlwVerifHash,
		}),
		Bookings: engine,
		Ledger:   ledger,
		Contacts: service.NewContactSvc(bookings, dir, log, cfg.ContactReleaseDays),
		Checkout: checkout,
		Signer:   auth.NewSigner(cfg.JWTSecret, time.Duration(cfg.JWTExpireMin)*time.Minute),
		Log:      log,
	})

	hs := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http listening")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	cancel()
	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	if err := hs.Shutdown(sctx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	log.Info("stopped")
}
