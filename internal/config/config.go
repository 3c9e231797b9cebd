package config

import (
	"fmt"
	"os"

	"backend/internal/model"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config carries all runtime configuration. Values come from an optional
// config file (viper) with environment variables taking precedence, so the
// service still boots from env alone in containers.
type Config struct {
	ServiceHost string
	ServicePort string
	DB          DBConfig
	CORSOrigins []string
	Workflow    WorkflowConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// WorkflowConfig holds the approval chain override. An empty chain means the
// full default sequence; a subset (e.g. a region without a project officer)
// must keep the default order.
type WorkflowConfig struct {
	Chain []string
}

// DSN builds the postgres connection string
func (d DBConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

// ApprovalChain resolves the configured chain against the known roles,
// preserving default order. Unknown role names are rejected.
func (w WorkflowConfig) ApprovalChain() ([]model.ApprovalRole, error) {
	if len(w.Chain) == 0 {
		return model.DefaultApprovalChain, nil
	}
	wanted := make(map[string]bool, len(w.Chain))
	for _, name := range w.Chain {
		if _, ok := model.ApproverScopes[model.ApprovalRole(name)]; !ok {
			return nil, fmt.Errorf("unknown approver role in workflow.chain: %q", name)
		}
		wanted[name] = true
	}
	chain := make([]model.ApprovalRole, 0, len(w.Chain))
	for _, role := range model.DefaultApprovalChain {
		if wanted[string(role)] {
			chain = append(chain, role)
		}
	}
	return chain, nil
}

// Load reads configs/.env plus an optional config file and returns the
// merged configuration.
func Load() (*Config, error) {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Debug("no configs/.env file found")
	}

	viper.SetConfigName(getEnv("CONFIG_NAME", "config"))
	viper.SetConfigType("toml")
	viper.AddConfigPath("configs")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; env defaults below cover everything
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	viper.SetDefault("service.host", "0.0.0.0")
	viper.SetDefault("service.port", "8080")
	viper.SetDefault("cors.origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})

	cfg := &Config{
		ServiceHost: viper.GetString("service.host"),
		ServicePort: getEnv("PORT", viper.GetString("service.port")),
		CORSOrigins: viper.GetStringSlice("cors.origins"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "postgres"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Workflow: WorkflowConfig{
			Chain: viper.GetStringSlice("workflow.chain"),
		},
	}

	if _, err := cfg.Workflow.ApprovalChain(); err != nil {
		return nil, err
	}

	log.Info("configuration loaded")
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
