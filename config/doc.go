// Package config provides process configuration for the game session relay.
//
// The config package handles:
//   - Default settings (port 4000, 256-message send buffer, 4096-byte frames)
//   - Optional JSON file overlay
//   - Validation before the server starts
//
// Sources:
//
// main.go fills a Config from command line flags, each backed by an
// environment variable. A .env file in the working directory is loaded first.
// A JSON file passed with --config is applied before flags, so explicit flags
// win over the file.
//
// Usage:
//
//	cfg := config.Default()
//	cfg.Port = 8080
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//	http.ListenAndServe(cfg.Addr(), handler)
package config
