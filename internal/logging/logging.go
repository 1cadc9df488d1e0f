// Package logging wires up the process-wide structured logger. Grounded in
// the rest of the retrieved pack's services (teranos/QNTX, jackzampolin/shelf),
// which use zap/slog rather than the teacher's bare log.Println.
package logging

import "go.uber.org/zap"

// New builds a console-friendly zap logger. debug widens the level to Debug,
// used for the Scheduler's per-quantum trace lines.
func New(debug bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !debug {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
