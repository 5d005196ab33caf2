// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package templates

import (
	"embed"
)

//go:embed systemd/*.tmpl
var SystemdFS embed.FS

// GetSystemdTemplate returns the content of a systemd template by name
func GetSystemdTemplate(name string) (string, error) {
	content, err := SystemdFS.ReadFile("systemd/" + name)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
