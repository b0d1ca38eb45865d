package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultAPIBase 是本地开发时后端的默认地址。
const DefaultAPIBase = "http://127.0.0.1:8000"

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Security SecurityConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	backend, err := loadBackendConfig()
	if err != nil {
		return nil, err
	}

	security, err := loadSecurityConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Backend: backend, Security: security}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// BackendConfig 描述预约系统后端的访问方式。
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

func loadBackendConfig() (BackendConfig, error) {
	base := strings.TrimRight(getEnvOrDefault("API_BASE", DefaultAPIBase), "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return BackendConfig{}, fmt.Errorf("invalid API_BASE value %q: scheme must be http or https", base)
	}

	timeoutSeconds := 60
	override, err := parseOptionalIntEnv("API_TIMEOUT_SECONDS")
	if err != nil {
		return BackendConfig{}, err
	}
	if override != nil {
		if *override < 1 {
			return BackendConfig{}, fmt.Errorf("invalid API_TIMEOUT_SECONDS value %d: must be positive", *override)
		}
		timeoutSeconds = *override
	}

	return BackendConfig{
		BaseURL: base,
		Timeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// SecurityConfig 描述 CSRF 相关配置。
type SecurityConfig struct {
	CSRFKey        []byte
	TrustedOrigins []string
}

func loadSecurityConfig() (SecurityConfig, error) {
	key, err := loadCSRFKey()
	if err != nil {
		return SecurityConfig{}, err
	}

	return SecurityConfig{
		CSRFKey:        key,
		TrustedOrigins: getEnvListOrDefault("TRUSTED_ORIGINS", []string{"localhost:8080", "127.0.0.1:8080"}),
	}, nil
}

// loadCSRFKey 读取 CSRF_KEY（64 位十六进制）；未设置时按进程生成随机密钥。
func loadCSRFKey() ([]byte, error) {
	if keyHex := strings.TrimSpace(os.Getenv("CSRF_KEY")); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, fmt.Errorf("invalid CSRF_KEY: must be 64 hex characters (32 bytes)")
		}
		return key, nil
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate csrf key: %w", err)
	}
	log.Println("warning: CSRF_KEY not set, using a random key for this process")
	return key, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
