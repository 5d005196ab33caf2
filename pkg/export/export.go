// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package export renders the resolved catalog as structured data.
package export

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/stratastor/nekrosis/pkg/catalog"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
	"gopkg.in/yaml.v3"
	"howett.net/plist"
)

// Format is a serialization format.
type Format string

const (
	FormatXML   Format = "xml"
	FormatJSON  Format = "json"
	FormatPlist Format = "plist"
	FormatYAML  Format = "yaml"
	FormatTOML  Format = "toml"

	DefaultFormat = FormatPlist
)

// Formats lists the supported formats in display order.
func Formats() []Format {
	return []Format{FormatXML, FormatJSON, FormatPlist, FormatYAML, FormatTOML}
}

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	names := make([]string, 0, len(Formats()))
	for _, known := range Formats() {
		names = append(names, string(known))
	}
	return "", nkerrors.New(nkerrors.ExportFormatInvalid, s).
		WithMetadata("supported", strings.Join(names, ","))
}

// Report is the exported view of one resolution pass. Recommended is empty
// when nothing is recommended.
type Report struct {
	Methods     []string `json:"persistence_methods" yaml:"persistence_methods" toml:"persistence_methods" plist:"persistence_methods"`
	Recommended string   `json:"recommended_method" yaml:"recommended_method" toml:"recommended_method" plist:"recommended_method"`
}

// xmlReport keeps the element layout out of Report's other encodings.
type xmlReport struct {
	XMLName     xml.Name `xml:"persistence_methods"`
	Recommended string   `xml:"recommended_method"`
	Methods     []string `xml:"methods>method"`
}

// NewReport builds a Report from a catalog and its recommendation.
func NewReport(cat catalog.Catalog, recommended catalog.Method) Report {
	r := Report{Methods: cat.Labels()}
	if !recommended.IsNone() {
		r.Recommended = recommended.Label
	}
	return r
}

func (r Report) normalized() Report {
	if r.Methods == nil {
		r.Methods = []string{}
	}
	return r
}

// Encode serializes r in format f. The output ends with a newline.
func Encode(r Report, f Format) ([]byte, error) {
	r = r.normalized()

	var (
		out []byte
		err error
	)
	switch f {
	case FormatJSON:
		out, err = json.MarshalIndent(r, "", "    ")
	case FormatXML:
		out, err = xml.Marshal(xmlReport{Recommended: r.Recommended, Methods: r.Methods})
	case FormatPlist:
		out, err = plist.MarshalIndent(r, plist.XMLFormat, "\t")
	case FormatYAML:
		out, err = yaml.Marshal(r)
	case FormatTOML:
		out, err = toml.Marshal(r)
	default:
		return nil, nkerrors.New(nkerrors.ExportFormatInvalid, string(f))
	}
	if err != nil {
		return nil, nkerrors.Wrap(err, nkerrors.ExportFailed).
			WithMetadata("format", string(f))
	}

	if !bytes.HasSuffix(out, []byte("\n")) {
		out = append(out, '\n')
	}
	return out, nil
}

// Decode parses data produced by Encode.
func Decode(data []byte, f Format) (Report, error) {
	var (
		r   Report
		err error
	)
	switch f {
	case FormatJSON:
		err = json.Unmarshal(data, &r)
	case FormatXML:
		var x xmlReport
		err = xml.Unmarshal(data, &x)
		r = Report{Methods: x.Methods, Recommended: x.Recommended}
	case FormatPlist:
		_, err = plist.Unmarshal(data, &r)
	case FormatYAML:
		err = yaml.Unmarshal(data, &r)
	case FormatTOML:
		err = toml.Unmarshal(data, &r)
	default:
		return Report{}, nkerrors.New(nkerrors.ExportFormatInvalid, string(f))
	}
	if err != nil {
		return Report{}, nkerrors.Wrap(err, nkerrors.ImportFailed).
			WithMetadata("format", string(f))
	}
	return r.normalized(), nil
}
