package env

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Prefix of environment variables overriding config keys,
// e.g. AUCTIONHOUSE_MONGO_URI overrides mongo.uri
const Prefix = "AUCTIONHOUSE"

// BindViper lets environment variables override the keys loaded from the config file
func BindViper(v *viper.Viper) {
	v.SetEnvPrefix(Prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// PodName example: k8ssta-auctionhouse-6868d88fbd-bz8zv
func PodName() string {
	return os.Getenv("PODNAME")
}

// EnvName example: k8ssta
func EnvName() string {
	return os.Getenv("ENV_NAME")
}

// AppName example: auctionhouse
func AppName() string {
	return os.Getenv("APP_NAME")
}
