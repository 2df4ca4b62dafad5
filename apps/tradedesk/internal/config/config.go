package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	RpcURL             string
	ChainID            uint64
	PrivateKey         string
	TokenAddress       string
	VaultAddress       string
	OrderBookAddress   string
	DocRegistryAddress string
	ArtifactStoreURL   string
	ArtifactStoreToken string
	BuyerWindow        uint64
	TraderWindow       uint64
	APIPort            int
}

// NewConfig loads configuration from environment variables
func NewConfig() *Config {
	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	return &Config{
		RpcURL:             getEnvOrFatal("RPC_URL"),
		ChainID:            getEnvUint64("CHAIN_ID", 11155111), // Sepolia
		PrivateKey:         getEnvOrFatal("PRIVATE_KEY"),
		TokenAddress:       getEnvOrFatal("TGT_ADDRESS"),
		VaultAddress:       getEnvOrFatal("VAULT_ADDRESS"),
		OrderBookAddress:   getEnvOrFatal("ORDERBOOK_ADDRESS"),
		DocRegistryAddress: getEnvOrFatal("DOCREG_ADDRESS"),
		ArtifactStoreURL:   getEnv("ARTIFACT_STORE_URL", "https://api.web3.storage/upload"),
		ArtifactStoreToken: getEnv("ARTIFACT_STORE_TOKEN", ""),
		BuyerWindow:        getEnvUint64("BUYER_SCAN_WINDOW", 50),
		TraderWindow:       getEnvUint64("TRADER_SCAN_WINDOW", 100),
		APIPort:            getEnvInt("API_PORT", 8080),
	}
}

func getEnvOrFatal(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	log.Fatalf("Warning: environment variable %s not set", key)

	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseUint(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
