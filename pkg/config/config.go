package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type App struct {
	Env      string `envconfig:"ENV" default:"dev"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":4000"`

	// Storage
	DataDir            string `envconfig:"DATA_DIR" default:"./data"`
	FirestoreProjectID string `envconfig:"FIRESTORE_PROJECT_ID"`
	PGPayoutsDSN       string `envconfig:"PG_PAYOUTS_DSN"`
	RedisURL           string `envconfig:"REDIS_URL"`

	// Messaging
	RabbitURL       string `envconfig:"RABBIT_URL"`
	BookingExchange string `envconfig:"BOOKING_EXCHANGE" default:"booking.exchange"`

	// Gateways
	PaystackSecretKey string `envconfig:"PAYSTACK_SECRET_KEY"`
	FlwVerifHash      string `envconfig:"FLW_VERIF_HASH"`
	FlwSecretKey      string `envconfig:"FLW_SECRET_KEY"`
	FrontendURL       string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`

	// JWT
	JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`
	JWTExpireMin int    `envconfig:"JWT_EXPIRE_MIN" default:"60"`

	// Business rules
	ContactReleaseDays int `envconfig:"CONTACT_RELEASE_DAYS" default:"3"`
	HostSharePercent   int `envconfig:"HOST_SHARE_PERCENT" default:"90"`

	OTLPEndpoint string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	LockTTL      time.Duration `envconfig:"BOOKING_LOCK_TTL" default:"10s"`
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (App, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return App{}, err
		}
	}
	var c App
	if err := envconfig.Process("", &c); err != nil {
		return App{}, err
	}
	if c.ContactReleaseDays < 0 {
		return App{}, errors.New("CONTACT_RELEASE_DAYS must not be negative")
	}
	if c.HostSharePercent <= 0 || c.HostSharePercent > 100 {
		return App{}, errors.New("HOST_SHARE_PERCENT must be within 1..100")
	}
	return c, nil
}
