//go:build integration

package testutil

import "time"

// OSSConfig holds the service the integration suite runs against.
type OSSConfig struct {
	Endpoint        string
	Bucket          string
	AccessKeyID     string
	AccessKeySecret string
	PathStyle       bool
	Timeout         time.Duration
}

// DefaultOSSConfig reads the target service from the environment. Tests are
// skipped when no endpoint or bucket is configured.
func DefaultOSSConfig() OSSConfig {
	return OSSConfig{
		Endpoint:        GetEnv("OSSMPU_IT_ENDPOINT", ""),
		Bucket:          GetEnv("OSSMPU_IT_BUCKET", ""),
		AccessKeyID:     GetEnv("OSSMPU_IT_ACCESS_KEY_ID", ""),
		AccessKeySecret: GetEnv("OSSMPU_IT_ACCESS_KEY_SECRET", ""),
		PathStyle:       GetEnv("OSSMPU_IT_PATH_STYLE", "") == "true",
		Timeout:         DefaultTimeout,
	}
}
