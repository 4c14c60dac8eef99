// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/LeeDigitalWorks/ossmpu/pkg/env"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ossmpu.yaml"), []byte(`
endpoint: oss-cn-hangzhou.aliyuncs.com
path_style: true
part_size: 16MiB
timeout: 30s
`), 0600))

	v := viper.New()
	found, err := Load(v, dir, "ossmpu", true)
	require.NoError(t, err)
	assert.True(t, found)

	assert.Equal(t, "oss-cn-hangzhou.aliyuncs.com", v.GetString(KeyEndpoint))
	assert.True(t, v.GetBool(KeyPathStyle))
	assert.Equal(t, 30*time.Second, v.GetDuration(KeyTimeout))
	assert.Equal(t, "https", v.GetString(KeyScheme))
	assert.Equal(t, 4, v.GetInt(KeyConcurrency))

	size, err := ParseSize(v.GetString(KeyPartSize))
	require.NoError(t, err)
	assert.Equal(t, int64(16<<20), size)
}

func TestLoadSetsEnvironment(t *testing.T) {
	t.Setenv("OSSMPU_ENV", "")
	t.Setenv("ENV", "")
	t.Cleanup(func() { env.Set(env.Local) })

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ossmpu.yaml"), []byte("env: production\n"), 0600))

	_, err := Load(viper.New(), dir, "ossmpu", true)
	require.NoError(t, err)
	assert.True(t, env.IsProduction())
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	found, err := Load(viper.New(), dir, "does-not-exist", false)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = Load(viper.New(), dir, "does-not-exist", true)
	assert.Error(t, err)
}

func TestLoadMalformed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("endpoint: [unterminated\n"), 0600))
	_, err := Load(viper.New(), dir, "broken", false)
	assert.Error(t, err)
}

func TestSettingsValidate(t *testing.T) {
	t.Parallel()

	valid := Settings{
		Endpoint:    "oss.example.com",
		PartSize:    8 << 20,
		Concurrency: 4,
	}
	require.NoError(t, valid.Validate())
	assert.True(t, valid.Anonymous())

	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"no endpoint", func(s *Settings) { s.Endpoint = "" }},
		{"half credentials", func(s *Settings) { s.AccessKeyID = "ak" }},
		{"tiny parts", func(s *Settings) { s.PartSize = 1 }},
		{"no concurrency", func(s *Settings) { s.Concurrency = 0 }},
		{"negative rate", func(s *Settings) { s.RateLimit = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := valid
			tt.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestParseSize(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]int64{
		"100KiB":  100 << 10,
		"8MiB":    8 << 20,
		"5242880": 5 << 20,
		"1 GiB":   1 << 30,
	} {
		got, err := ParseSize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseSize("lots")
	assert.Error(t, err)
}
