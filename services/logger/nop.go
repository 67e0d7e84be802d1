package logsvc

import "github.com/upskillhub/upskill/core"

// NopLogger discards everything. Used by tests.
type NopLogger struct{}

var _ core.Logger = NopLogger{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}
