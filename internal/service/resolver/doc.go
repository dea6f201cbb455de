// Package resolver fetches the remote bedrock server data document and resolves
// a (platform, version) pair to a download URL and optional SHA-256 checksum.
//
// Resolution is one HTTP request and one parse pass; it never retries and never
// touches the filesystem.
package resolver
