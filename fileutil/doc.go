// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package fileutil is the filesystem collaborator of the vitest MCP server.
//
// Every file access the server performs goes through the FileSystem
// interface, which has two implementations:
//
//   - OSFileSystem backs production use; WriteFile is atomic
//   - MemFS is an in-memory tree used by tests
//
// Paths handed to a FileSystem are expected to come from
// security.SecurePathResolve. ContainsText performs that resolution itself.
//
// # Atomic Write Operations
//
// AtomicWriteFile and AtomicWriteJSON write to a uniquely named temporary file
// in the target directory, sync it, set permissions and rename it into place.
// The rename is retried a few times with a short linear backoff, and the
// temporary file is removed on any failure.
//
// # Example Usage
//
//	resolved, err := security.SecurePathResolve(root, "coverage/coverage-summary.json")
//	if err != nil {
//	    return err
//	}
//	var summary map[string]any
//	if err := fileutil.ReadJSON(fileutil.OS, resolved, &summary); err != nil {
//	    return err
//	}
//
// Files are created with 0644 permissions and directories with 0750.
package fileutil
