package config

import "github.com/caarlos0/env/v9"

type Config struct {
	Port              string `env:"PORT" envDefault:"8080"`
	DBUser            string `env:"DB_USER,required"`
	DBPassword        string `env:"DB_PASSWORD,required"`
	DBHost            string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/path)
	DBName            string `env:"DB_NAME,required"`
	DBPort            string `env:"DB_PORT" envDefault:"3306"`
	NATSURL           string `env:"NATS_URL"` // empty selects the in-process bus
	EventBufferSize   int    `env:"EVENT_BUFFER_SIZE" envDefault:"256"`
	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
