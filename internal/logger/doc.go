// Package logger wraps zap with a global sugared logger and context helpers.
//
// Services name their logger with WithName and attach fields with WithFields;
// the package-level functions (InfoKV, WarnKV and so on) log through whatever
// logger the context carries.
package logger
