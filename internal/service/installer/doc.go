// Package installer downloads a Bedrock Dedicated Server artifact, verifies it,
// unpacks it into a staging directory next to the install root and atomically
// promotes the result into place.
//
// Nothing is ever written at the canonical executable path until the staged
// tree is complete, so an interrupted or failed install is simply retried from
// scratch on the next run.
package installer
