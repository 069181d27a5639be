package commands

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bind binds config keys to the flags named in keys.
func bind(v *viper.Viper, lookup func(string) *pflag.Flag, keys map[string]string) {
	for key, flag := range keys {
		if f := lookup(flag); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}
