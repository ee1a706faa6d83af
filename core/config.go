package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	// Config holds the resolved application configuration.
	Config struct {
		Debug    bool
		TestMode bool
		Env      string
		Build    string
		AppName  string

		// SecretKey signs session tokens. Required outside debug mode.
		SecretKey string

		RollbarToken       string
		FrontendBaseURL    string
		CORSAllowedOrigins []string

		Server   ServerConfig
		Auth     AuthConfig
		Firebase FirebaseConfig
	}

	ServerConfig struct {
		Host            string
		APIHost         string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	AuthConfig struct {
		TokenIssuer          string
		TokenExpirationDelta time.Duration
		AllowedEmailDomain   string
		AdminEmails          []string

		// InsecureBypass substitutes a fixed placeholder identity for
		// assertion verification. Refused outside debug mode.
		InsecureBypass bool
	}

	FirebaseConfig struct {
		ProjectID string
	}
)

// NewConfig loads the configuration from defaults, an optional config/.env.<env>
// file and environment variables prefixed with the current ENV.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("build", "dev")
	conf.SetDefault("appName", "Info Class")
	conf.SetDefault("secretKey", "")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("corsAllowedOrigins", []string{})
	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("apiHost", ":8000")
	conf.SetDefault("debugHost", ":4000")
	conf.SetDefault("shutdownTimeout", 20*time.Second)
	conf.SetDefault("authTokenIssuer", "info-class-api")
	conf.SetDefault("authTokenExpirationDelta", 24*time.Hour)
	conf.SetDefault("authAllowedEmailDomain", "@pocheonil.hs.kr")
	conf.SetDefault("authAdminEmails", []string{"admin@pocheonil.hs.kr"})
	conf.SetDefault("authInsecureBypass", false)
	conf.SetDefault("firebaseProjectID", "info-class-7398a")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	debug := conf.GetBool("debug")

	secretKey := conf.GetString("secretKey")
	if secretKey == "" {
		if !debug {
			log.Fatal("config: secretKey is required")
		}
		secretKey = devSecretKey
	}

	// the verification bypass must never reach production
	insecureBypass := conf.GetBool("authInsecureBypass")
	if insecureBypass && !debug {
		log.Fatal("config: authInsecureBypass cannot be enabled outside debug mode")
	}

	corsOrigins := conf.GetStringSlice("corsAllowedOrigins")
	if len(corsOrigins) == 0 {
		if debug {
			corsOrigins = []string{"*"}
		} else {
			corsOrigins = []string{"https://info.pocheonil.hs.kr"}
		}
	}

	return &Config{
		Debug:              debug,
		TestMode:           conf.GetBool("testMode"),
		Env:                env,
		Build:              conf.GetString("build"),
		AppName:            conf.GetString("appName"),
		SecretKey:          secretKey,
		RollbarToken:       conf.GetString("rollbarToken"),
		FrontendBaseURL:    conf.GetString("frontendBaseURL"),
		CORSAllowedOrigins: corsOrigins,
		Server: ServerConfig{
			Host:            conf.GetString("serverHost"),
			APIHost:         conf.GetString("apiHost"),
			DebugHost:       conf.GetString("debugHost"),
			ShutdownTimeout: conf.GetDuration("shutdownTimeout"),
		},
		Auth: AuthConfig{
			TokenIssuer:          conf.GetString("authTokenIssuer"),
			TokenExpirationDelta: conf.GetDuration("authTokenExpirationDelta"),
			AllowedEmailDomain:   conf.GetString("authAllowedEmailDomain"),
			AdminEmails:          conf.GetStringSlice("authAdminEmails"),
			InsecureBypass:       insecureBypass,
		},
		Firebase: FirebaseConfig{
			ProjectID: conf.GetString("firebaseProjectID"),
		},
	}
}

// devSecretKey is only ever used in debug mode.
const devSecretKey = "2zq8-vnm)ofc$+31=ke&wpyj5(j!z)#*d8(#th2v^$ikm3qnx"
