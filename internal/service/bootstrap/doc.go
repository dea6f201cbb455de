// Package bootstrap locates, installs and launches the Bedrock Dedicated Server.
//
// Select maps a platform name to a Bootstrap variant (Linux or Windows). Launch
// drives one invocation: it checks for the executable, asks before installing a
// missing server, then runs it and returns the server's exit code. ExitCode
// turns failures that happen before the server starts into process exit codes.
package bootstrap
