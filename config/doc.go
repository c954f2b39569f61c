// Package config loads and validates gatherkit configuration.
//
// Configuration is read with Viper from a config.yml file, an optional
// .env file and the process environment. Environment variables override
// file values by their underscore-separated path, so ENGINE_PARALLELISM
// sets engine.parallelism.
//
// # Usage
//
//	cfg, err := config.Load("my-service")
//	engine, err := gather.NewEngine(cfg.Engine)
package config
