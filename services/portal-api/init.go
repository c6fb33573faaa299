package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v2"

	emailsending "github.com/egov-portal/portal-backend/pkg/messaging/email-sending"
	"github.com/egov-portal/portal-backend/pkg/messaging/sms"
	messagingTypes "github.com/egov-portal/portal-backend/pkg/messaging/types"
	"github.com/egov-portal/portal-backend/pkg/otp"
	"github.com/egov-portal/portal-backend/pkg/ratelimit"
	"github.com/egov-portal/portal-backend/pkg/session"
	smtpclient "github.com/egov-portal/portal-backend/pkg/smtp-client"
	"github.com/egov-portal/portal-backend/pkg/store"
	"github.com/egov-portal/portal-backend/pkg/store/memstore"
	"github.com/egov-portal/portal-backend/pkg/store/mongostore"
	"github.com/egov-portal/portal-backend/pkg/store/redisstore"
	"github.com/egov-portal/portal-backend/pkg/user-management/pwhash"
	"github.com/egov-portal/portal-backend/pkg/utils"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_PORTAL_USER_JWT_SIGN_KEY = "PORTAL_USER_JWT_SIGN_KEY"
	ENV_SMS_GATEWAY_API_KEY      = "SMS_GATEWAY_API_KEY"
	ENV_MONGO_DB_CONNECTION_STR  = "MONGO_DB_CONNECTION_STR"
	ENV_REDIS_PASSWORD           = "REDIS_PASSWORD"
	ENV_SMTP_SERVER_USERNAME     = "SMTP_SERVER_USERNAME"
	ENV_SMTP_SERVER_PASSWORD     = "SMTP_SERVER_PASSWORD"
)

// store backend names
const (
	STORE_BACKEND_MEMORY = "memory"
	STORE_BACKEND_MONGO  = "mongo"
	STORE_BACKEND_REDIS  = "redis"
)

type PortalApiConfig struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// Gin configs
	GinConfig struct {
		DebugMode    bool     `json:"debug_mode" yaml:"debug_mode"`
		AllowOrigins []string `json:"allow_origins" yaml:"allow_origins"`
		Port         string   `json:"port" yaml:"port"`
	} `json:"gin_config" yaml:"gin_config"`

	// user management configs
	UserManagementConfig struct {
		PWHashing struct {
			Argon2Memory      uint32 `json:"argon2_memory" yaml:"argon2_memory"`
			Argon2Iterations  uint32 `json:"argon2_iterations" yaml:"argon2_iterations"`
			Argon2Parallelism uint8  `json:"argon2_parallelism" yaml:"argon2_parallelism"`
		} `json:"pw_hashing" yaml:"pw_hashing"`
		PortalUserJWTConfig struct {
			SignKey   string        `json:"sign_key" yaml:"sign_key"`
			ExpiresIn time.Duration `json:"expires_in" yaml:"expires_in"`
		} `json:"portal_user_jwt_config" yaml:"portal_user_jwt_config"`
		RefreshTokenTTL    time.Duration `json:"refresh_token_ttl" yaml:"refresh_token_ttl"`
		MaxSessionsPerUser int           `json:"max_sessions_per_user" yaml:"max_sessions_per_user"`
	} `json:"user_management_config" yaml:"user_management_config"`

	// OTP configs
	OTPConfig struct {
		CodeLength  int           `json:"code_length" yaml:"code_length"`
		TTL         time.Duration `json:"ttl" yaml:"ttl"`
		Cooldown    time.Duration `json:"cooldown" yaml:"cooldown"`
		MaxAttempts int           `json:"max_attempts" yaml:"max_attempts"`
		// expose plaintext codes in API responses, never in production
		CodeInResponse bool `json:"code_in_response" yaml:"code_in_response"`
	} `json:"otp_config" yaml:"otp_config"`

	// auth rate limiter configs
	RateLimiterConfig struct {
		Window      time.Duration `json:"window" yaml:"window"`
		MaxAttempts int           `json:"max_attempts" yaml:"max_attempts"`
	} `json:"rate_limiter_config" yaml:"rate_limiter_config"`

	// store backend selection
	StoreConfig struct {
		// memory | mongo
		Backend string `json:"backend" yaml:"backend"`
		MongoDB struct {
			ConnectionStr    string `json:"connection_str" yaml:"connection_str"`
			DBNamePrefix     string `json:"db_name_prefix" yaml:"db_name_prefix"`
			Timeout          int    `json:"timeout" yaml:"timeout"`
			IdleConnTimeout  int    `json:"idle_conn_timeout" yaml:"idle_conn_timeout"`
			MaxPoolSize      uint64 `json:"max_pool_size" yaml:"max_pool_size"`
			RunIndexCreation bool   `json:"run_index_creation" yaml:"run_index_creation"`
		} `json:"mongodb" yaml:"mongodb"`
		// memory | redis
		RateLimitBackend string `json:"rate_limit_backend" yaml:"rate_limit_backend"`
		Redis            struct {
			Address  string `json:"address" yaml:"address"`
			Password string `json:"password" yaml:"password"`
			DB       int    `json:"db" yaml:"db"`
		} `json:"redis" yaml:"redis"`
	} `json:"store_config" yaml:"store_config"`

	// messaging configs
	MessagingConfigs struct {
		SmtpServerConfig *smtpclient.SmtpServerList       `json:"smtp_servers" yaml:"smtp_servers"`
		SMSGateway       *messagingTypes.SMSGatewayConfig `json:"sms_gateway" yaml:"sms_gateway"`
	} `json:"messaging_configs" yaml:"messaging_configs"`
}

var (
	conf PortalApiConfig

	userStore      store.UserStore
	otpStore       store.OtpStore
	sessionStore   store.SessionStore
	rateLimitStore store.RateLimitStore

	otpService     *otp.Service
	sessionService *session.Service
	authLimiter    *ratelimit.Limiter
)

func init() {
	// Read config from file
	yamlFile, err := os.ReadFile(os.Getenv(ENV_CONFIG_FILE_PATH))
	if err != nil {
		panic(err)
	}

	err = yaml.UnmarshalStrict(yamlFile, &conf)
	if err != nil {
		panic(err)
	}

	// Init logger:
	utils.InitLogger(
		conf.Logging.LogLevel,
		conf.Logging.IncludeSrc,
		conf.Logging.LogToFile,
		conf.Logging.Filename,
		conf.Logging.MaxSize,
		conf.Logging.MaxAge,
		conf.Logging.MaxBackups,
		conf.Logging.CompressOldLogs,
	)

	// Override secrets from environment variables
	secretsOverride()

	if conf.UserManagementConfig.PortalUserJWTConfig.SignKey == "" {
		panic("portal user JWT sign key is not set")
	}

	if !conf.GinConfig.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// init argon2
	pwhash.InitArgonParams(
		conf.UserManagementConfig.PWHashing.Argon2Memory,
		conf.UserManagementConfig.PWHashing.Argon2Iterations,
		conf.UserManagementConfig.PWHashing.Argon2Parallelism,
	)

	initStores()
	initServices()
	initMessaging()
}

func secretsOverride() {
	if signKey := os.Getenv(ENV_PORTAL_USER_JWT_SIGN_KEY); signKey != "" {
		conf.UserManagementConfig.PortalUserJWTConfig.SignKey = signKey
	}

	if apiKey := os.Getenv(ENV_SMS_GATEWAY_API_KEY); apiKey != "" {
		if conf.MessagingConfigs.SMSGateway != nil {
			conf.MessagingConfigs.SMSGateway.APIKey = apiKey
		}
	}

	if connStr := os.Getenv(ENV_MONGO_DB_CONNECTION_STR); connStr != "" {
		conf.StoreConfig.MongoDB.ConnectionStr = connStr
	}

	if redisPassword := os.Getenv(ENV_REDIS_PASSWORD); redisPassword != "" {
		conf.StoreConfig.Redis.Password = redisPassword
	}

	if conf.MessagingConfigs.SmtpServerConfig != nil {
		username := os.Getenv(ENV_SMTP_SERVER_USERNAME)
		password := os.Getenv(ENV_SMTP_SERVER_PASSWORD)
		for i := range conf.MessagingConfigs.SmtpServerConfig.Servers {
			if username != "" {
				conf.MessagingConfigs.SmtpServerConfig.Servers[i].SetUsername(username)
			}
			if password != "" {
				conf.MessagingConfigs.SmtpServerConfig.Servers[i].SetPassword(password)
			}
		}
	}
}

func initStores() {
	switch conf.StoreConfig.Backend {
	case STORE_BACKEND_MONGO:
		dbService, err := mongostore.NewPortalDBService(mongostore.DBConfig{
			URI:             conf.StoreConfig.MongoDB.ConnectionStr,
			DBNamePrefix:    conf.StoreConfig.MongoDB.DBNamePrefix,
			Timeout:         conf.StoreConfig.MongoDB.Timeout,
			IdleConnTimeout: conf.StoreConfig.MongoDB.IdleConnTimeout,
			MaxPoolSize:     conf.StoreConfig.MongoDB.MaxPoolSize,
		})
		if err != nil {
			slog.Error("error connecting to Portal DB", slog.String("error", err.Error()))
			panic(err)
		}
		if conf.StoreConfig.MongoDB.RunIndexCreation {
			dbService.CreateDefaultIndexes()
		}
		userStore = dbService
		otpStore = dbService
		sessionStore = dbService
	case STORE_BACKEND_MEMORY, "":
		mem := memstore.New()
		userStore = mem
		otpStore = mem
		sessionStore = mem
	default:
		panic("unknown store backend: " + conf.StoreConfig.Backend)
	}

	switch conf.StoreConfig.RateLimitBackend {
	case STORE_BACKEND_REDIS:
		window := conf.RateLimiterConfig.Window
		if window == 0 {
			window = ratelimit.DEFAULT_WINDOW
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		redisStore, err := redisstore.Connect(
			ctx,
			conf.StoreConfig.Redis.Address,
			conf.StoreConfig.Redis.Password,
			conf.StoreConfig.Redis.DB,
			window,
		)
		if err != nil {
			slog.Error("error connecting to Redis", slog.String("error", err.Error()))
			panic(err)
		}
		rateLimitStore = redisStore
	case STORE_BACKEND_MEMORY, "":
		if mem, ok := userStore.(*memstore.MemStore); ok {
			rateLimitStore = mem
		} else {
			rateLimitStore = memstore.New()
		}
	default:
		panic("unknown rate limit backend: " + conf.StoreConfig.RateLimitBackend)
	}
}

func initServices() {
	otpService = otp.NewService(otpStore, otp.Config{
		CodeLength:  conf.OTPConfig.CodeLength,
		TTL:         conf.OTPConfig.TTL,
		Cooldown:    conf.OTPConfig.Cooldown,
		MaxAttempts: conf.OTPConfig.MaxAttempts,
	})

	sessionService = session.NewService(sessionStore, session.Config{
		TokenSignKey:       conf.UserManagementConfig.PortalUserJWTConfig.SignKey,
		AccessTokenTTL:     conf.UserManagementConfig.PortalUserJWTConfig.ExpiresIn,
		RefreshTokenTTL:    conf.UserManagementConfig.RefreshTokenTTL,
		MaxSessionsPerUser: conf.UserManagementConfig.MaxSessionsPerUser,
	})

	authLimiter = ratelimit.New(rateLimitStore, ratelimit.Config{
		Window:      conf.RateLimiterConfig.Window,
		MaxAttempts: conf.RateLimiterConfig.MaxAttempts,
	})
}

func initMessaging() {
	emailsending.Init(conf.MessagingConfigs.SmtpServerConfig)
	sms.Init(conf.MessagingConfigs.SMSGateway)
}
