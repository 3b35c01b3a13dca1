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
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env       string
		Build     string
		Debug     bool
		TestMode  bool
		AppName   string
		SecretKey string
		WorkDir   string

		// ThemeName is the short theme name; the component is "theme_" + ThemeName.
		ThemeName string
		// WWWRoot is prepended to site urls (profile, course, badge links).
		WWWRoot string
		// SiteID is the id of the front page course; badges for it mean "site badges".
		SiteID int
		// Totara enables job assignment (manager/team) and program features.
		Totara bool
		// FrontpageCourseLimit bounds the courses listed on the front page.
		FrontpageCourseLimit int

		RollbarToken     string
		SendgridAPIKey   string
		defaultFromEmail string

		Server   ServerConfig
		Database DatabaseConfig
	}

	ServerConfig struct {
		Host                      string
		DebugHost                 string
		ReadTimeout               time.Duration
		WriteTimeout              time.Duration
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		// Prefix of the host tables, e.g. "mdl_".
		Prefix string
	}
)

func (c *Config) Component() string {
	return "theme_" + c.ThemeName
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
}

func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, strconv.Itoa(dc.Port))
}

// NewConfig loads the configuration from the environment.
// ENV selects the environment (DEV by default, TEST, QA, PROD); a matching
// config/.env.<env> file is loaded first when it exists.
func NewConfig() *Config {
	conf := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	workDir := Getwd()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", env == "DEV")
	conf.SetDefault("testMode", env == "TEST")
	conf.SetDefault("build", "develop")
	conf.SetDefault("appName", "University")
	conf.SetDefault("secretKey", "q8=x#v4k!h2w9(s%0lmz)c3j&e7r@y5u1b6n*t^p$gaodfi+")
	conf.SetDefault("themeName", "university")
	conf.SetDefault("wwwRoot", "")
	conf.SetDefault("siteID", 1)
	conf.SetDefault("totara", false)
	conf.SetDefault("frontpageCourseLimit", 200)
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")

	conf.SetDefault("serverHost", ":8000")
	conf.SetDefault("serverDebugHost", ":4000")
	conf.SetDefault("serverReadTimeout", 5*time.Second)
	conf.SetDefault("serverWriteTimeout", 10*time.Second)
	conf.SetDefault("serverShutdownTimeout", 5*time.Second)
	conf.SetDefault("jwtExpirationDelta", 15*time.Minute)
	conf.SetDefault("jwtRefreshExpirationDelta", 24*time.Hour)

	conf.SetDefault("databaseEngine", "postgres")
	conf.SetDefault("databaseHost", "localhost")
	conf.SetDefault("databasePort", 5432)
	conf.SetDefault("databaseName", "moodle")
	conf.SetDefault("databaseUser", "")
	conf.SetDefault("databasePassword", "")
	conf.SetDefault("databaseAdminUser", "postgres")
	conf.SetDefault("databaseAdminPassword", "")
	conf.SetDefault("databaseDisableTLS", env == "DEV" || env == "TEST")
	conf.SetDefault("databasePrefix", "mdl_")

	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:                  env,
		Build:                conf.GetString("build"),
		Debug:                conf.GetBool("debug"),
		TestMode:             conf.GetBool("testMode"),
		AppName:              conf.GetString("appName"),
		SecretKey:            conf.GetString("secretKey"),
		WorkDir:              workDir,
		ThemeName:            conf.GetString("themeName"),
		WWWRoot:              strings.TrimRight(conf.GetString("wwwRoot"), "/"),
		SiteID:               conf.GetInt("siteID"),
		Totara:               conf.GetBool("totara"),
		FrontpageCourseLimit: conf.GetInt("frontpageCourseLimit"),
		RollbarToken:         conf.GetString("rollbarToken"),
		SendgridAPIKey:       conf.GetString("sendgridApiKey"),
		defaultFromEmail:     conf.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Host:                      conf.GetString("serverHost"),
			DebugHost:                 conf.GetString("serverDebugHost"),
			ReadTimeout:               conf.GetDuration("serverReadTimeout"),
			WriteTimeout:              conf.GetDuration("serverWriteTimeout"),
			ShutdownTimeout:           conf.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("databaseEngine"),
			Host:          conf.GetString("databaseHost"),
			Port:          conf.GetInt("databasePort"),
			Name:          conf.GetString("databaseName"),
			User:          conf.GetString("databaseUser"),
			Password:      conf.GetString("databasePassword"),
			AdminUser:     conf.GetString("databaseAdminUser"),
			AdminPassword: conf.GetString("databaseAdminPassword"),
			DisableTLS:    conf.GetBool("databaseDisableTLS"),
			Prefix:        conf.GetString("databasePrefix"),
		},
	}
}

// NewTestConfig returns a configuration suitable for tests; it does not read the environment.
func NewTestConfig() *Config {
	return &Config{
		Env:                  "TEST",
		Build:                "test",
		Debug:                true,
		TestMode:             true,
		AppName:              "University",
		SecretKey:            "secret",
		ThemeName:            "university",
		SiteID:               1,
		FrontpageCourseLimit: 200,
		defaultFromEmail:     "noreply@localhost",
		Server: ServerConfig{
			Host:                      ":0",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Database: DatabaseConfig{Engine: "sqlite", Name: ":memory:", Prefix: "mdl_"},
	}
}
