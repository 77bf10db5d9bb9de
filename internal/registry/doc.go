// Package registry maps embed-type identifiers to draw functions and
// dispatches frame rendering to them. Duplicate registration of a type
// is an error. The Seeder additionally registers declarative embeds
// from YAML manifests on disk.
package registry
