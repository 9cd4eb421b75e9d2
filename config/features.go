package config

import "os"

// Features are coarse switches for optional surfaces. Everything is on unless
// explicitly disabled.
type Features struct {
	PaymentsEnabled bool
	CatalogEnabled  bool
	SweeperEnabled  bool
}

func LoadFeatures() Features {
	return Features{
		PaymentsEnabled: os.Getenv("PAYMENTS_ENABLED") != "false",
		CatalogEnabled:  os.Getenv("CATALOG_ENABLED") != "false",
		SweeperEnabled:  os.Getenv("SWEEPER_ENABLED") != "false",
	}
}
