package main

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/research-index/pkg/types"
)

// envKeyReplacer maps generator.base_url to RESEARCH_INDEX_GENERATOR_BASE_URL.
var envKeyReplacer = strings.NewReplacer(".", "_")

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("generator.base_url", "http://localhost:8000")
	v.SetDefault("generator.timeout", "0s")
	v.SetDefault("generator.user_agent", "research-index/"+version)
	v.SetDefault("generator.legacy_envelope", false)
	v.SetDefault("state.dir", ".research-index")
	v.SetDefault("serve.addr", ":8090")
}

// appConfig assembles the component configuration from v.
func appConfig(v *viper.Viper) types.AppConfig {
	return types.AppConfig{
		Generator: types.GeneratorConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration("generator.timeout"),
				UserAgent: v.GetString("generator.user_agent"),
			},
			BaseURL:        v.GetString("generator.base_url"),
			APIKey:         v.GetString("generator.api_key"),
			LegacyEnvelope: v.GetBool("generator.legacy_envelope"),
		},
		State: types.StateConfig{Dir: v.GetString("state.dir")},
		Serve: types.ServeConfig{Addr: v.GetString("serve.addr")},
	}
}
