// Package descriptor stores bedrock server data documents on disk.
//
// The FileRepository reads and writes a document as JSON or YAML depending on
// the file extension, and is what the packager edits before publishing.
package descriptor
