package config

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"
)

const defaultEnvPrefix = "SPARKMON_"

var (
	// AllowFlags defines processing the cli arguments by GetConfig
	// true by default
	// false if the caller binds config flags into own flag set with BindFlags
	AllowFlags = true
	// EnvPrefix defines name prefix for environment variables
	// with struct-path selector and value, for example:
	//    SPARKMON_SPARK_TOKEN=TOK_EN
	EnvPrefix = defaultEnvPrefix
	// ConfigEnv defines environment variable for config file path, overrides the ConfigName
	ConfigEnv = "SPARKMON_CONFIG"
	// ConfigName defines default filename for look in work directory if ConfigEnv is empty
	ConfigName = "sparkmon.yaml"
	// SecKeyEnv defines environment variable for secret to crypt the token in config file
	SecKeyEnv = "SPARKMON_SECKEY"
)

// BindFlags adds config flags into the caller flag set
func BindFlags(flags *pflag.FlagSet) {
	flags.StringVar(&EnvPrefix, "env-prefix", defaultEnvPrefix,
		`prefix for environment variables, "SPARKMON_" by default`)
	flags.StringVar(&ConfigEnv, "config-env", "SPARKMON_CONFIG",
		`environment variable for config file path, "SPARKMON_CONFIG" by default`)
	flags.StringVar(&SecKeyEnv, "seckey-env", "SPARKMON_SECKEY",
		`environment variable for secret to crypt the token in config file, "SPARKMON_SECKEY" by default`)
}

func applyFlags() {
	if AllowFlags {
		/* std flag doesn't support parsing in tests init,
		using github.com/spf13/pflag instead */
		flags := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
		flags.SetOutput(io.Discard)
		BindFlags(flags)
		_ = flags.Parse(os.Args[1:])
	}

	for _, s := range []*string{&ConfigEnv, &SecKeyEnv} {
		*s = strings.TrimPrefix(*s, defaultEnvPrefix)
		*s = strings.TrimPrefix(*s, EnvPrefix)
		*s = EnvPrefix + *s
	}
}

func applyEnv(v ...any) error {
	var ee []error
	for i := range v {
		if err := env.ParseWithOptions(v[i], env.Options{Prefix: EnvPrefix}); err != nil {
			ee = append(ee, err)
		}
	}
	if len(ee) > 0 {
		return errors.Join(ee...)
	}
	return nil
}
