// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"strconv"
	"strings"

	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
)

// ResolveOverride maps a caller selector to a catalog member. A selector that
// parses as an integer is an index into cat; anything else must equal one of
// cat's labels exactly. Only the filtered catalog is consulted, so an
// override can never reach a method that is unavailable on this host.
func ResolveOverride(cat Catalog, selector string) (Method, error) {
	if index, err := strconv.Atoi(strings.TrimSpace(selector)); err == nil {
		if index < 0 || index >= len(cat) {
			return Method{}, nkerrors.New(
				nkerrors.IndexOutOfRange,
				fmt.Sprintf("index %d is out of range (%s)", index, validRange(cat)),
			).
				WithMetadata("selector", selector).
				WithMetadata("catalog_size", strconv.Itoa(len(cat)))
		}
		return cat[index], nil
	}

	for _, m := range cat {
		if m.Label == selector {
			return m, nil
		}
	}

	return Method{}, nkerrors.New(
		nkerrors.UnsupportedMethod,
		fmt.Sprintf("method %q is not supported.\nSupported methods:\n%s", selector, Enumerate(cat)),
	).
		WithMetadata("selector", selector).
		WithMetadata("catalog", strings.Join(cat.Labels(), ", "))
}

// Enumerate renders `  i - "label"` lines for operator guidance.
func Enumerate(cat Catalog) string {
	if len(cat) == 0 {
		return "  (none)"
	}
	lines := make([]string, 0, len(cat))
	for i, m := range cat {
		lines = append(lines, fmt.Sprintf("  %d - %q", i, m.Label))
	}
	return strings.Join(lines, "\n")
}

func validRange(cat Catalog) string {
	if len(cat) == 0 {
		return "catalog is empty"
	}
	return fmt.Sprintf("0-%d", len(cat)-1)
}
