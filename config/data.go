package config

import (
	"maps"
	"path/filepath"
)

// CredentialsDBPath returns the full path to the credentials database.
// Path: {DataDir}/credentials.db
func (c Config) CredentialsDBPath() string {
	return filepath.Join(c.DataDir, "credentials.db")
}

// AccessInfo merges the stored backend credentials with the storage
// settings from the config. Non-empty config values win.
func (c Config) AccessInfo(stored map[string]string) map[string]string {
	info := make(map[string]string, len(stored)+4)
	maps.Copy(info, stored)

	set := func(k, v string) {
		if v != "" {
			info[k] = v
		}
	}
	set("region", c.Storage.Region)
	set("endpoint", c.Storage.Endpoint)
	set("publicURL", c.Storage.PublicURL)
	if c.Storage.Backend == "directServe" {
		// Served files must stay under the server's own directory.
		info["baseDir"] = c.Storage.ServeDir
	}
	return info
}
