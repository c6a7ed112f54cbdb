package app

import (
	"strings"

	"github.com/yungbote/rosterbridge-backend/internal/platform/envutil"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
	"github.com/yungbote/rosterbridge-backend/internal/services"
)

type Config struct {
	Environment     string
	Version         string
	HTTPAddr        string
	JWTSecretKey    string
	AllowOrigins    []string
	UploadMaxBytes  int64
	UploadAutoApply bool
	RemovalPolicy   services.RemovalPolicy
}

func LoadConfig(log *logger.Logger) Config {
	policy, err := services.ParseRemovalPolicy(envutil.GetEnv("ROSTER_REMOVAL_POLICY", string(services.RemovalHard), log))
	if err != nil {
		log.Warn("Unknown removal policy, using hard deletes", "error", err)
		policy = services.RemovalHard
	}
	maxMB := envutil.GetEnvAsInt("UPLOAD_MAX_MB", 10, log)
	if maxMB <= 0 {
		maxMB = 10
	}
	return Config{
		Environment:     envutil.GetEnv("APP_ENV", "development", log),
		Version:         envutil.GetEnv("APP_VERSION", "dev", log),
		HTTPAddr:        envutil.GetEnv("HTTP_ADDR", ":8080", log),
		JWTSecretKey:    strings.TrimSpace(envutil.GetEnv("JWT_SECRET_KEY", "", log)),
		AllowOrigins:    envutil.GetEnvAsList("CORS_ALLOW_ORIGINS", nil),
		UploadMaxBytes:  int64(maxMB) << 20,
		UploadAutoApply: envutil.GetEnvAsBool("UPLOAD_AUTO_APPLY", false, log),
		RemovalPolicy:   policy,
	}
}
