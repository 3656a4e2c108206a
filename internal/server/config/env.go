package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/blogapi/internal/flagx"
	"github.com/joho/godotenv"
)

const (
	envHTTPAddr         = "BLOG_HTTP_ADDR"
	envGRPCAddr         = "BLOG_GRPC_ADDR"
	envDatabaseDSN      = "BLOG_DATABASE_DSN"
	envSecretKey        = "BLOG_SECRET_KEY"
	envAccessTokenTTL   = "BLOG_ACCESS_TOKEN_TTL"
	envRefreshTokenTTL  = "BLOG_REFRESH_TOKEN_TTL"
	envRedisAddr        = "BLOG_REDIS_ADDR"
	envMaxLoginAttempts = "BLOG_MAX_LOGIN_ATTEMPTS"
	envLoginCooldown    = "BLOG_LOGIN_COOLDOWN"
	envTOTPIssuer       = "BLOG_TOTP_ISSUER"
	envLogLevel         = "BLOG_LOG_LEVEL"
)

const defaultEnvFile = ".env"

// readEnv merges the dotenv file with the process environment. Process
// variables win over the file, the same way godotenv.Load behaves.
func readEnv(path string) (map[string]string, error) {
	vars := map[string]string{}

	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	fileVars, err := godotenv.Read(path)
	switch {
	case err == nil:
		for k, v := range fileVars {
			vars[k] = v
		}
	case !explicit && errors.Is(err, fs.ErrNotExist):
		// optional default file
	default:
		return nil, err
	}

	for _, k := range []string{
		envHTTPAddr, envGRPCAddr, envDatabaseDSN, envSecretKey, envAccessTokenTTL, envRefreshTokenTTL,
		envRedisAddr, envMaxLoginAttempts, envLoginCooldown, envTOTPIssuer, envLogLevel,
	} {
		if v, ok := os.LookupEnv(k); ok {
			vars[k] = v
		}
	}

	return vars, nil
}

// parseEnv overlays BLOG_* variables onto config. Unparseable values panic,
// like the JSON and flag layers do.
func parseEnv(config *Config) {
	vars, err := readEnv(flagx.EnvFileFlags())
	if err != nil {
		panic(err)
	}

	setString := func(key string, dst *string) {
		if v, ok := vars[key]; ok {
			*dst = v
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v, ok := vars[key]; ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}

	setString(envHTTPAddr, &config.HTTPAddr)
	setString(envGRPCAddr, &config.EndpointAddrGRPC)
	setString(envDatabaseDSN, &config.DatabaseDSN)
	setString(envSecretKey, &config.SecretKey)
	setDuration(envAccessTokenTTL, &config.AccessTokenValidityDuration)
	setDuration(envRefreshTokenTTL, &config.RefreshTokenValidityDuration)
	setString(envRedisAddr, &config.RedisAddr)
	setDuration(envLoginCooldown, &config.LoginCooldownDuration)
	setString(envTOTPIssuer, &config.TOTPIssuer)
	setString(envLogLevel, &config.LogLevel)

	if v, ok := vars[envMaxLoginAttempts]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.MaxLoginAttempts = n
	}
}
