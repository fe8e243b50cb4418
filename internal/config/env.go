package config

import (
	"os"
	"strings"
)

// applyEnv layers environment overrides on top of the loaded config.
// AUDITOR_ENDPOINT keeps its historical name; the rest are CLEANNAV_*.
func applyEnv(c *Config) {
	if v := getenv("AUDITOR_ENDPOINT"); v != "" {
		c.Report.AuditorEndpoint = v
	}
	if v := getenv("CLEANNAV_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := getenv("CLEANNAV_DATA_DIR"); v != "" {
		c.Server.DataDir = v
	}
	if v := getenv("CLEANNAV_REPORTS_DIR"); v != "" {
		c.Server.ReportsDir = v
	}
	if v := getenv("CLEANNAV_ROOM_ID"); v != "" {
		c.Room.ID = v
	}
	if v := getenv("CLEANNAV_CLEANER_ID"); v != "" {
		c.Room.CleanerID = v
	}
	if v := getenv("CLEANNAV_MODEL_URL"); v != "" {
		c.Classifier.ModelURL = v
	}
	if v := getenv("CLEANNAV_METADATA_URL"); v != "" {
		c.Classifier.MetadataURL = v
	}
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
