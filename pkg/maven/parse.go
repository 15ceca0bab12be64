package maven

import (
	"bytes"
	"encoding/xml"

	"golang.org/x/net/html/charset"
)

// Parse decodes a POM manifest. url is only used to label errors.
//
// The root element must be <project>; namespaces are ignored and element
// order does not matter. Omitted containers decode as empty slices. Encodings
// other than UTF-8 are honoured when declared in the XML prolog.
//
// Returns a [*ParseError] for malformed documents and for manifests without
// an artifactId.
func Parse(url string, data []byte) (*Project, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var p Project
	if err := dec.Decode(&p); err != nil {
		return nil, &ParseError{URL: url, Err: err}
	}
	p.normalize()
	if p.ArtifactID == "" {
		return nil, &ParseError{URL: url, Err: ErrMissingArtifact}
	}
	return &p, nil
}
