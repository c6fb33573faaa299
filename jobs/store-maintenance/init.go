package main

import (
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/egov-portal/portal-backend/pkg/store/mongostore"
	"github.com/egov-portal/portal-backend/pkg/utils"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_MONGO_DB_CONNECTION_STR = "MONGO_DB_CONNECTION_STR"
)

type config struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// DB configs
	MongoDB struct {
		ConnectionStr   string `json:"connection_str" yaml:"connection_str"`
		DBNamePrefix    string `json:"db_name_prefix" yaml:"db_name_prefix"`
		Timeout         int    `json:"timeout" yaml:"timeout"`
		IdleConnTimeout int    `json:"idle_conn_timeout" yaml:"idle_conn_timeout"`
		MaxPoolSize     uint64 `json:"max_pool_size" yaml:"max_pool_size"`
	} `json:"mongodb" yaml:"mongodb"`

	MaintenanceConfig struct {
		DeleteUnverifiedUsersAfter time.Duration `json:"delete_unverified_users_after" yaml:"delete_unverified_users_after"`
	} `json:"maintenance_config" yaml:"maintenance_config"`

	RunTasks struct {
		CleanUpUnverifiedUsers      bool `json:"clean_up_unverified_users" yaml:"clean_up_unverified_users"`
		RemoveOrphanedRefreshTokens bool `json:"remove_orphaned_refresh_tokens" yaml:"remove_orphaned_refresh_tokens"`
	} `json:"run_tasks" yaml:"run_tasks"`
}

var conf config

var portalDBService *mongostore.PortalDBService

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

	// check config values:
	if conf.RunTasks.CleanUpUnverifiedUsers && conf.MaintenanceConfig.DeleteUnverifiedUsersAfter == 0 {
		slog.Error("DeleteUnverifiedUsersAfter is not set")
		panic("DeleteUnverifiedUsersAfter is not set")
	}

	initDB()
}

func secretsOverride() {
	if connStr := os.Getenv(ENV_MONGO_DB_CONNECTION_STR); connStr != "" {
		conf.MongoDB.ConnectionStr = connStr
	}
}

func initDB() {
	var err error
	portalDBService, err = mongostore.NewPortalDBService(mongostore.DBConfig{
		URI:             conf.MongoDB.ConnectionStr,
		DBNamePrefix:    conf.MongoDB.DBNamePrefix,
		Timeout:         conf.MongoDB.Timeout,
		IdleConnTimeout: conf.MongoDB.IdleConnTimeout,
		MaxPoolSize:     conf.MongoDB.MaxPoolSize,
	})
	if err != nil {
		slog.Error("error connecting to Portal DB", slog.String("error", err.Error()))
		panic(err)
	}
}
