// Package packager publishes server builds into a bedrock server data document.
//
// It hashes a local artifact, records its download URL and checksum under
// (version, platform) and saves the document for upload next to the builds.
package packager
