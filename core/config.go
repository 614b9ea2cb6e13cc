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
	Config struct {
		Debug    bool
		TestMode bool
		AppName  string
		Env      string
		Build    string

		Server ServerConfig
		Canvas CanvasConfig
		Bark   BarkConfig

		// DataFile is the JSON document holding all assignment records.
		DataFile string

		AnthropicKey     string
		SendgridApiKey   string
		ReminderEmail    string // reminder recipient; email channel disabled when empty
		DefaultFromEmail string
		RollbarToken     string

		AutoSyncInterval time.Duration
		ReminderInterval time.Duration
	}

	ServerConfig struct {
		Addr            string
		DebugAddr       string
		ShutdownTimeout time.Duration
	}

	CanvasConfig struct {
		BaseURL string
		Token   string
		Timeout time.Duration
	}

	BarkConfig struct {
		Key    string
		Server string
	}
)

// LoadConfig reads configuration from defaults, an optional config/.env.<env>
// file and KAZI_-prefixed environment variables.
func LoadConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Kazi")
	v.SetDefault("build", "dev")
	v.SetDefault("server.addr", ":8765")
	v.SetDefault("server.debugAddr", ":6060")
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("dataFile", "assignments.json")
	v.SetDefault("canvas.baseURL", "")
	v.SetDefault("canvas.token", "")
	v.SetDefault("canvas.timeout", 20*time.Second)
	v.SetDefault("bark.key", "")
	v.SetDefault("bark.server", "https://api.day.app")
	v.SetDefault("anthropicKey", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("reminderEmail", "")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("autoSyncInterval", 6*time.Hour)
	v.SetDefault("reminderInterval", time.Hour)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (default), TEST, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	if env == "PROD" {
		v.SetDefault("debug", false)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix("KAZI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := &Config{Env: env}
	if err := v.Unmarshal(conf); err != nil {
		log.Fatalf("config.viper.Unmarshal: %v", err)
	}
	return conf
}
