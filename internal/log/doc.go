// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// Steganography tools are often driven with a passphrase or key on the command
// line, and their output may be arbitrarily long. The SecureHandler therefore:
//   - masks attributes whose key names a secret (password, passphrase, token, ...)
//   - masks the value following -p, -k, --passphrase and similar flags in
//     logged command argument slices
//   - masks values that look like credentials (bearer tokens, private key blocks)
//   - truncates long string values with an explicit marker
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("running detector",
//	    "args", []string{"steghide", "extract", "-p", "hunter2"}, // masked
//	)
//	slog.SetDefault(logger)
package log
