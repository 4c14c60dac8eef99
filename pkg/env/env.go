// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package env names the environment ossmpu runs in. It only selects the log
// format: console output locally, JSON lines elsewhere.
package env

import (
	"strings"
	"sync"

	"github.com/spf13/viper"
)

const (
	Local      = "local"
	Production = "production"
	Testing    = "testing"
)

// Key is the configuration key, OSSMPU_ENV (or ENV) in the environment.
const Key = "env"

var (
	mu  sync.RWMutex
	env = Local
)

func init() {
	Set(Resolve(viper.New()))
}

// Resolve reads the environment name from v with viper's precedence:
// OSSMPU_ENV, then ENV, then the env key of a loaded config file. Unknown or
// empty names resolve to Local.
func Resolve(v *viper.Viper) string {
	_ = v.BindEnv(Key, "OSSMPU_ENV", "ENV")
	switch name := strings.ToLower(strings.TrimSpace(v.GetString(Key))); name {
	case Production, Testing:
		return name
	default:
		return Local
	}
}

// Set overrides the current environment.
func Set(name string) {
	mu.Lock()
	defer mu.Unlock()
	env = name
}

func Get() string {
	mu.RLock()
	defer mu.RUnlock()
	return env
}

func IsLocal() bool {
	return Get() == Local
}

func IsProduction() bool {
	return Get() == Production
}

func IsTesting() bool {
	return Get() == Testing
}
