// Package pathutil locates the Node.js package runners vitest is launched
// through.
//
// An MCP server is usually started by a desktop client rather than a login
// shell, so its PATH may lack the directories npm, pnpm, yarn, bun or a
// version manager such as Volta install into. LocateTool checks PATH first,
// then those directories, and otherwise fails with ErrToolNotFound and an
// installation hint.
//
//	path, err := pathutil.LocateTool("pnpm")
//	if errors.Is(err, pathutil.ErrToolNotFound) {
//	    // err reads "tool not found: pnpm is not in PATH. Install from https://pnpm.io/installation"
//	}
//
// On Windows, PATH lookups honour PATHEXT and the directory search tries the
// .cmd and .exe shims that npm-installed tools use.
package pathutil
