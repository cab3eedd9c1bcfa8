package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

type Config struct {
	Port string

	StoreBackend     string
	PostgresAddress  string
	PostgresPort     string
	PostgresDB       string
	PostgresUsername string
	PostgresPassword string

	OperatorWorkers int

	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string
}

// ProcessEnvironmentVariables reads the configuration from the environment.
// A .env file in the working directory is loaded first when present; values
// already set in the environment win over it.
func ProcessEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	// In all cases the default behavior should be for the docker compose setup
	env := Config{
		Port:             "8080",
		StoreBackend:     StoreBackendPostgres,
		PostgresAddress:  "localhost",
		PostgresPort:     "5433",
		PostgresDB:       "postgres",
		PostgresUsername: "postgres",
		PostgresPassword: "testpassword",
		OperatorWorkers:  1,
		AMQPExchange:     "ledger",
		AMQPRoutingKey:   "ledger.changed",
	}

	setFromEnv(&env.Port, "PORT")
	setFromEnv(&env.StoreBackend, "STORE_BACKEND")
	setFromEnv(&env.PostgresAddress, "POSTGRES_ADDRESS")
	setFromEnv(&env.PostgresPort, "POSTGRES_PORT")
	setFromEnv(&env.PostgresDB, "POSTGRES_DB")
	setFromEnv(&env.PostgresUsername, "POSTGRES_USERNAME")
	setFromEnv(&env.PostgresPassword, "POSTGRES_PASSWORD")
	setFromEnv(&env.AMQPURL, "AMQP_URL")
	setFromEnv(&env.AMQPExchange, "AMQP_EXCHANGE")
	setFromEnv(&env.AMQPRoutingKey, "AMQP_ROUTING_KEY")

	if workers := os.Getenv("OPERATOR_WORKERS"); len(workers) != 0 {
		n, err := strconv.Atoi(workers)
		if err != nil {
			return nil, fmt.Errorf("OPERATOR_WORKERS: %w", err)
		}
		env.OperatorWorkers = n
	}

	if err := env.Validate(); err != nil {
		return nil, err
	}

	return &env, nil
}

func setFromEnv(target *string, key string) {
	if value := os.Getenv(key); len(value) != 0 {
		*target = value
	}
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if c.StoreBackend != StoreBackendPostgres && c.StoreBackend != StoreBackendMemory {
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreBackendPostgres, StoreBackendMemory, c.StoreBackend)
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a number between 1 and 65535, got %q", c.Port)
	}
	if c.OperatorWorkers < 1 {
		return fmt.Errorf("OPERATOR_WORKERS must be at least 1, got %d", c.OperatorWorkers)
	}
	if c.AMQPURL != "" && c.AMQPExchange == "" {
		return errors.New("AMQP_EXCHANGE is required when AMQP_URL is set")
	}
	return nil
}

func (c *Config) PostgresConnectionString() string {
	return "postgres://" + c.PostgresUsername + ":" +
		c.PostgresPassword + "@" + c.PostgresAddress + ":" +
		c.PostgresPort + "/" + c.PostgresDB + "?sslmode=disable"
}
