// Package config loads the process configuration: the two mandatory
// positional integers spec.md §6 requires (NCPU, TSLICE) plus the ambient
// settings spec.md never names but a complete repository needs (table and
// queue capacity, the monitor HTTP address, shutdown grace period). The
// ambient settings are layered with github.com/spf13/viper, the same
// env+file pattern the pack's services (teranos/QNTX) use; positional args
// always win over file/env for NCPU/TSLICE since spec.md treats them as the
// one fatal-if-wrong piece of configuration.
package config

import (
	"strconv"
	"time"

	"github.com/spf13/viper"

	"batchshell/internal/apperrors"
)

const (
	minNCPU   = 1
	maxNCPU   = 16
	minTSlice = 1
)

// Config is the resolved, validated configuration for one run of the shell.
type Config struct {
	NCPU          int
	TSliceMS      int
	TableCapacity int
	QueueCapacity int
	ShutdownGrace time.Duration
	MonitorAddr   string // empty disables internal/monitor
	Debug         bool
}

// Load parses positional args (expected to be os.Args[1:]) as "<NCPU> <TSLICE>"
// and layers the ambient settings from BATCHSHELL_-prefixed environment
// variables and an optional TOML file named by BATCHSHELL_CONFIG. Returns
// apperrors.ErrConfigInvalid, wrapped with the usage message, on any failure.
func Load(args []string) (*Config, error) {
	if len(args) < 2 {
		return nil, apperrors.Wrap(apperrors.ErrConfigInvalid, usage())
	}

	ncpu, errN := strconv.Atoi(args[0])
	tslice, errT := strconv.Atoi(args[1])
	if errN != nil || errT != nil || ncpu < minNCPU || ncpu > maxNCPU || tslice < minTSlice {
		return nil, apperrors.Wrap(apperrors.ErrConfigInvalid, usage())
	}

	v := viper.New()
	v.SetEnvPrefix("BATCHSHELL")
	v.AutomaticEnv()
	v.SetDefault("table_capacity", 256)
	v.SetDefault("queue_capacity", 128)
	v.SetDefault("shutdown_grace", "2s")
	v.SetDefault("monitor_addr", "")
	v.SetDefault("debug", false)

	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrConfigInvalid, "reading config file: "+err.Error())
		}
	}

	grace, err := time.ParseDuration(v.GetString("shutdown_grace"))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrConfigInvalid, "shutdown_grace: "+err.Error())
	}

	queueCap := v.GetInt("queue_capacity")
	tableCap := v.GetInt("table_capacity")
	if queueCap < tableCap {
		// The ReadyQueue must be able to hold every job the table can ever
		// admit at once, or Submit's own capacity check becomes inconsistent.
		queueCap = tableCap
	}

	return &Config{
		NCPU:          ncpu,
		TSliceMS:      tslice,
		TableCapacity: tableCap,
		QueueCapacity: queueCap,
		ShutdownGrace: grace,
		MonitorAddr:   v.GetString("monitor_addr"),
		Debug:         v.GetBool("debug"),
	}, nil
}

func usage() string {
	return "usage: <NCPU> <TSLICE>  (1 <= NCPU <= 16, TSLICE >= 1 ms)"
}
