// Package fs abstracts the file system operations used by the version
// store and the dedup index so that write failures can be injected in
// tests without touching the real disk.
//
// WriteAtomic implements the write-temp, sync, rename discipline that
// manifest updates rely on: after a crash the target file is either the
// old content or the new content, never a torn write.
package fs
