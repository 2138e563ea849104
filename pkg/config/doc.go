// Package config loads typed configuration from the environment.
//
// Structs are described with github.com/caarlos0/env/v11 tags. A .env file
// in the working directory is read once through github.com/joho/godotenv
// before the first parse, and each struct type is parsed only once per
// process:
//
//	type Config struct {
//		Addr    string `env:"HTTP_ADDR" envDefault:":8080"`
//		Driver  string `env:"STORE_DRIVER" envDefault:"memory"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// A struct with a Validate() error method is validated after parsing.
// Reset clears the cache for tests.
package config
