// Package security validates and sanitizes untrusted strings before they are
// used to touch the filesystem or spawn a subprocess.
//
// Every function in this package is pure: no filesystem access, no logging,
// no shared mutable state. The only side effect is reading the system's
// cryptographically secure random source in CreateSecureTempPath. All
// functions are safe for concurrent use.
//
// # Key Features
//
//   - Path validation (traversal, control characters, depth, system directories)
//   - Boundary-constrained resolution against a trusted project root
//   - Extension allowlists for test, source and configuration files
//   - Unpredictable temporary file names (256 bits of entropy)
//   - Content sanitization for display (script blocks, URI schemes, control characters)
//   - Command-argument and coverage glob-pattern validation
//
// # Error Model
//
// Validators return *Error, which carries a Kind, the offending value and,
// where relevant, the parameter name and the exceeded limit. Error() is a
// stable, human-readable message. Each Kind unwraps to a sentinel so callers
// can branch with errors.Is:
//
//	resolved, err := security.SecurePathResolve(projectRoot, userPath)
//	if errors.Is(err, security.ErrBoundaryEscape) {
//	    logutil.Warn("path escaped project root", "path", userPath)
//	}
//
// SanitizeFileContent is the only total function: it never fails and returns
// an empty string for values that are not strings (see SanitizeValue).
//
// # Time of Check and Time of Use
//
// Validation is lexical. A caller that validates a path and later opens it
// can race with concurrent filesystem changes; re-validate at use time or use
// atomic filesystem primitives where that matters.
//
// # Example Usage
//
//	if err := security.ValidateCommandArgument(project, "project"); err != nil {
//	    return err
//	}
//
//	target, err := security.SecurePathResolve(root, "src/app.test.ts")
//	if err != nil {
//	    return err
//	}
//	if err := security.ValidateTestFilePath(target); err != nil {
//	    return err
//	}
//
//	if err := security.ValidateGlobPatterns([]string{"**/*.test.ts"}); err != nil {
//	    return err
//	}
package security
