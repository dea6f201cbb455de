// Package server contains core domain types for locating a Bedrock Dedicated Server build.
//
// It defines Platform (the closed set of supported operating systems), Layout
// (where a given server version lives on disk), RemoteDescriptor (where to
// download it from) and the error taxonomy shared by the resolver, installer
// and bootstrap services.
package server
