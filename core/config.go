package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kat-co/vala"
	"github.com/spf13/viper"
)

const (
	EnvDev  = "DEV"
	EnvTest = "TEST"
	EnvQA   = "QA"
	EnvProd = "PROD"
)

type Config struct {
	Debug    bool
	TestMode bool
	Env      string
	Build    string

	AppName          string
	SecretKey        string
	DefaultFromEmail mail.Address
	FrontendBaseURL  string

	RollbarToken   string
	SendgridApiKey string

	PasswordResetTimeoutDelta time.Duration

	Server struct {
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		SessionSweepInterval      time.Duration
	}

	Database struct {
		Engine        string // postgres | pgx
		Host          string
		Port          int
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Name          string
		DisableTLS    bool
	}

	Onboarding struct {
		StateTTL time.Duration
	}
}

func (c Config) IsProd() bool { return c.Env == EnvProd }

// DatabaseAddress returns the host:port of the database server.
func (c Config) DatabaseAddress() string {
	return net.JoinHostPort(c.Database.Host, strconv.Itoa(c.Database.Port))
}

// NewConfig loads the configuration of the current environment.
// ENV selects the environment: DEV (default), TEST, QA or PROD.
// Every key can be overridden with an env var prefixed by the environment name, e.g. PROD_SECRETKEY.
func NewConfig() *Config {
	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = EnvDev
	}
	loadDotEnv(env)

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v, env)
	v.SetEnvPrefix(env)
	v.AutomaticEnv()

	conf := &Config{
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		Env:                       env,
		Build:                     v.GetString("build"),
		AppName:                   v.GetString("appName"),
		SecretKey:                 v.GetString("secretKey"),
		FrontendBaseURL:           v.GetString("frontendBaseURL"),
		RollbarToken:              v.GetString("rollbarToken"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
	}
	conf.DefaultFromEmail = mail.Address{Name: conf.AppName, Address: v.GetString("defaultFromEmail")}

	conf.Server.Host = v.GetString("serverHost")
	conf.Server.DebugHost = v.GetString("serverDebugHost")
	conf.Server.ShutdownTimeout = v.GetDuration("serverShutdownTimeout")
	conf.Server.JWTExpirationDelta = v.GetDuration("jwtExpirationDelta")
	conf.Server.JWTRefreshExpirationDelta = v.GetDuration("jwtRefreshExpirationDelta")
	conf.Server.SessionSweepInterval = v.GetDuration("sessionSweepInterval")

	conf.Database.Engine = v.GetString("dbEngine")
	conf.Database.Host = v.GetString("dbHost")
	conf.Database.Port = v.GetInt("dbPort")
	conf.Database.User = v.GetString("dbUser")
	conf.Database.Password = v.GetString("dbPassword")
	conf.Database.AdminUser = v.GetString("dbAdminUser")
	conf.Database.AdminPassword = v.GetString("dbAdminPassword")
	conf.Database.Name = v.GetString("dbName")
	conf.Database.DisableTLS = v.GetBool("dbDisableTLS")

	conf.Onboarding.StateTTL = v.GetDuration("onboardingStateTTL")

	if env == EnvQA || env == EnvProd {
		err := vala.BeginValidation().Validate(
			vala.StringNotEmpty(conf.SecretKey, "SecretKey"),
			vala.StringNotEmpty(conf.RollbarToken, "RollbarToken"),
			vala.StringNotEmpty(conf.SendgridApiKey, "SendgridApiKey"),
			vala.StringNotEmpty(conf.Database.Password, "Database.Password"),
		).Check()
		if err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	return conf
}

func setDefaults(v *viper.Viper, env string) {
	v.SetDefault("debug", env == EnvDev || env == EnvTest)
	v.SetDefault("testMode", env == EnvTest)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Upskill")
	if env == EnvDev || env == EnvTest {
		v.SetDefault("secretKey", "dev-only-4n#t2(g8)k1=w%y!q0z7^vhx-b3mcp+e")
	} else {
		v.SetDefault("secretKey", "")
	}
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:8080")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("serverHost", "0.0.0.0:8000")
	v.SetDefault("serverDebugHost", "0.0.0.0:4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 4*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 7*24*time.Hour)
	v.SetDefault("sessionSweepInterval", 10*time.Minute)

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", 5432)
	v.SetDefault("dbUser", "upskill")
	v.SetDefault("dbPassword", "upskill")
	v.SetDefault("dbAdminUser", "postgres")
	v.SetDefault("dbAdminPassword", "postgres")
	v.SetDefault("dbName", "upskill")
	v.SetDefault("dbDisableTLS", env == EnvDev || env == EnvTest)

	v.SetDefault("onboardingStateTTL", 24*time.Hour)
}

// loadDotEnv loads config/.env.<env> if it exists (ignored if it does not).
func loadDotEnv(env string) {
	root, err := ProjectRoot()
	if err != nil {
		return
	}
	dotEnvPath := filepath.Join(root, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
}
