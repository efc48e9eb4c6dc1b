package config

import (
	"os"
	"strconv"
)

const (
	configPathEnvVar    = "ALBIS_CONFIG"
	endpointEnvVar      = "ALBIS_ENDPOINT"
	apiStageEnvVar      = "ALBIS_API_STAGE"
	usernameEnvVar      = "ALBIS_USERNAME"
	passwordEnvVar      = "ALBIS_PASSWORD"
	auth0UsernameEnvVar = "ALBIS_AUTH0_USERNAME"
	auth0PasswordEnvVar = "ALBIS_AUTH0_PASSWORD"
	realmEnvVar         = "ALBIS_REALM"
	redisAddrEnvVar     = "ALBIS_REDIS_ADDR"
	debugEnvVar         = "ALBIS_DEBUG"
	logLevelEnvVar      = "ALBIS_LOG_LEVEL"
)

func applyEnv(cfg *Config) {
	cfg.Albis.Endpoint = GetEnv(endpointEnvVar, cfg.Albis.Endpoint)
	cfg.Albis.APIStage = GetEnv(apiStageEnvVar, cfg.Albis.APIStage)
	cfg.Albis.DebugRequests = getEnvBool(debugEnvVar, cfg.Albis.DebugRequests)

	cfg.Credentials.Username = GetEnv(usernameEnvVar, cfg.Credentials.Username)
	cfg.Credentials.Password = GetEnv(passwordEnvVar, cfg.Credentials.Password)
	cfg.Credentials.Auth0Username = GetEnv(auth0UsernameEnvVar, cfg.Credentials.Auth0Username)
	cfg.Credentials.Auth0Password = GetEnv(auth0PasswordEnvVar, cfg.Credentials.Auth0Password)
	cfg.Credentials.Realm = GetEnv(realmEnvVar, cfg.Credentials.Realm)

	cfg.Redis.Addr = GetEnv(redisAddrEnvVar, cfg.Redis.Addr)
	cfg.Log.Level = GetEnv(logLevelEnvVar, cfg.Log.Level)
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(envVar string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return b
}
