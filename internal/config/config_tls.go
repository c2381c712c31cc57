package config

import "fmt"

// ValidateTLSConfig validates the server TLS section
func (c *Config) ValidateTLSConfig() error {
	return c.Server.TLS.Validate()
}

// Enabled reports whether the server terminates TLS itself
func (t TLSConfig) Enabled() bool {
	return t.Mode == "server"
}

// Watchable reports whether the certificate and key come from files that can
// be watched for rotation.
func (t TLSConfig) Watchable() bool {
	return t.CertFile != "" && t.KeyFile != "" && t.CertContent == "" && t.KeyContent == ""
}

// Validate checks the mode, the certificate sources and the minimum version.
// Each of certificate and key must come from exactly one of file or content.
func (t TLSConfig) Validate() error {
	switch t.Mode {
	case "", "disabled":
		return nil
	case "server":
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled' or 'server')", t.Mode)
	}

	for _, src := range []struct{ name, file, content string }{
		{"cert", t.CertFile, t.CertContent},
		{"key", t.KeyFile, t.KeyContent},
	} {
		switch {
		case src.file == "" && src.content == "":
			return fmt.Errorf("TLS certificate and key are required for server mode (missing %s file or content)", src.name)
		case src.file != "" && src.content != "":
			return fmt.Errorf("cannot specify both %sFile and %sContent", src.name, src.name)
		}
	}

	if t.Watch && !t.Watchable() {
		return fmt.Errorf("TLS watch needs certFile and keyFile; certificates from content cannot be watched")
	}

	switch t.MinVersion {
	case "", "1.2", "1.3":
		return nil
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", t.MinVersion)
	}
}
