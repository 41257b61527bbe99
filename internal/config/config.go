package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type StorageDriver string

const (
	StorageGCS   StorageDriver = "gcs"
	StorageMinio StorageDriver = "minio"
)

type Config struct {
	ProjectID string `envconfig:"PROJECTID"`
	Region    string `envconfig:"REGION"`
	LogLevel  string `envconfig:"LOGLEVEL" default:"info"`
	Port      int    `envconfig:"PORT" default:"8080"`

	// Identity Toolkit / Secure Token endpoints; point them at the auth emulator locally.
	FirebaseWebAPIKey  string `envconfig:"FIREBASEWEBAPIKEY"`
	IdentityBaseURL    string `envconfig:"IDENTITYBASEURL" default:"https://identitytoolkit.googleapis.com"`
	SecureTokenBaseURL string `envconfig:"SECURETOKENBASEURL" default:"https://securetoken.googleapis.com"`
	PasswordResetURL   string `envconfig:"PASSWORDRESETURL"`

	KMSKeyName string `envconfig:"KMSKEYNAME"`

	StorageDriver  StorageDriver `envconfig:"STORAGEDRIVER" default:"gcs"`
	StorageBucket  string        `envconfig:"STORAGEBUCKET" default:"client-documents"`
	MinioEndpoint  string        `envconfig:"MINIOENDPOINT"`
	MinioAccessKey string        `envconfig:"MINIOACCESSKEY"`
	MinioSecretKey string        `envconfig:"MINIOSECRETKEY"`
	MinioUseSSL    bool          `envconfig:"MINIOUSESSL" default:"false"`

	SignedURLTTL      time.Duration `envconfig:"SIGNEDURLTTL" default:"60s"`
	MaxUploadBytes    int64         `envconfig:"MAXUPLOADBYTES" default:"307200"`
	MaxRawUploadBytes int64         `envconfig:"MAXRAWUPLOADBYTES" default:"10485760"`
	ImageMaxDimension int           `envconfig:"IMAGEMAXDIMENSION" default:"1280"`

	SendGridAPIKey string `envconfig:"SENDGRIDAPIKEY"`
	MailFrom       string `envconfig:"MAILFROM" default:"no-reply@promptfinancial.in"`
	MailFromName   string `envconfig:"MAILFROMNAME" default:"Prompt Financial Services"`

	AuthRateLimit float64 `envconfig:"AUTHRATELIMIT" default:"1"`
	AuthRateBurst int     `envconfig:"AUTHRATEBURST" default:"10"`

	// proxies appending to X-Forwarded-For; Cloud Run's front end adds one
	TrustedProxyHops int `envconfig:"TRUSTEDPROXYHOPS" default:"1"`

	ReminderTimezone        string `envconfig:"REMINDERTIMEZONE" default:"Asia/Kolkata"`
	ProfileReminderSchedule string `envconfig:"PROFILEREMINDERSCHEDULE" default:"0 9 * * 1"`
	FilingReminderSchedule  string `envconfig:"FILINGREMINDERSCHEDULE" default:"0 9 * 7 1"`
}

// New reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func New() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location returns the zone used for financial-year and reminder calculations.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReminderTimezone)
	if err != nil {
		return time.FixedZone("IST", 5*60*60+30*60)
	}
	return loc
}
