package config

import (
	"errors"
	"time"

	"github.com/andrew-solarstorm/go-packages/common"
)

type CatalogueConfig struct {
	// File is the JSON pool catalogue loaded on start and on every refresh.
	File string

	// DBPath is the path to the BoltDB file for catalogue persistence.
	// Default: "./data/catalogue.db"
	DBPath string

	// PersistenceEnabled controls whether the catalogue is persisted to disk
	// and restored when the file cannot be read.
	// Default: true
	PersistenceEnabled bool

	// RefreshInterval is how often the catalogue file is re-read. 0 disables refreshing.
	// Default: 60s
	RefreshInterval time.Duration
}

func (c *CatalogueConfig) Key() string {
	return CATALOGUE_CONFIG_KEY
}

func (c *CatalogueConfig) Load() error {
	c.File = common.GetEnvOrDefault("CATALOGUE_FILE", "./data/pools.json")
	c.DBPath = common.GetEnvOrDefault("CATALOGUE_DB_PATH", "./data/catalogue.db")
	c.PersistenceEnabled = common.GetEnvOrDefault("CATALOGUE_PERSISTENCE_ENABLED", "true") == "true"
	c.RefreshInterval = time.Duration(common.GetEnvOrDefaultInt("CATALOGUE_REFRESH_SECONDS", 60)) * time.Second
	return c.Validate()
}

func (c *CatalogueConfig) Validate() error {
	if c.File == "" && !c.PersistenceEnabled {
		return errors.New("invalid catalogue config: no catalogue file and persistence disabled")
	}
	if c.PersistenceEnabled && c.DBPath == "" {
		return errors.New("invalid catalogue config: CATALOGUE_DB_PATH is required")
	}
	if c.RefreshInterval < 0 {
		return errors.New("invalid catalogue config: negative refresh interval")
	}
	return nil
}
