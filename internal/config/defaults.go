package config

import (
	"github.com/spf13/viper"

	"github.com/zoobzio/faultline"
)

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.file", "")

	viper.SetDefault("codec", "json")
	viper.SetDefault("max_depth", -1)
	viper.SetDefault("receive_max_depth", faultline.DefaultReceiveMaxDepth)

	viper.SetDefault("store.path", "")
	viper.SetDefault("fingerprint.algorithm", string(faultline.HashBLAKE2b))

	viper.SetDefault("send.mask", []MaskRule{})
	viper.SetDefault("send.redact", []RedactRule{})
}
