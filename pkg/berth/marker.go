package berth

import (
	"reflect"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// markerTagKey is the struct-tag key carrying berth marker annotations, e.g.
//
//	Cache *redisstub.Server `berth:"resource,image=redis:7.2,name=cache"`
const markerTagKey = "berth"

// Marker is one annotation carried by a resource field. Flag-style markers
// ("resource") have an empty Value.
type Marker struct {
	Key   string
	Value string
}

// markerList is the participle grammar root for a berth tag value.
type markerList struct {
	Pairs []*markerPair `parser:"( @@ ( ',' @@ )* )?"`
}

// markerPair is a single "key" or "key=value" entry.
type markerPair struct {
	Key   string `parser:"@Atom"`
	Value string `parser:"( '=' @Atom )?"`
}

var markerLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comma", Pattern: `,`},
	{Name: "Equals", Pattern: `=`},
	{Name: "Atom", Pattern: `[^,=]+`},
})

var markerParser = participle.MustBuild[markerList](
	participle.Lexer(markerLexer),
)

// ParseMarkers extracts the berth markers declared on a struct field tag.
// Fields without a berth tag yield no markers and no error.
func ParseMarkers(tag reflect.StructTag) ([]Marker, error) {
	raw, ok := tag.Lookup(markerTagKey)
	if !ok || raw == "" {
		return nil, nil
	}
	list, err := markerParser.ParseString("", raw)
	if err != nil {
		return nil, &MarkerError{Tag: raw, Err: err}
	}
	markers := make([]Marker, 0, len(list.Pairs))
	for _, pair := range list.Pairs {
		markers = append(markers, Marker{
			Key:   strings.TrimSpace(pair.Key),
			Value: strings.TrimSpace(pair.Value),
		})
	}
	return markers, nil
}

// MarkerValue returns the value of the named marker and whether it is present.
func MarkerValue(markers []Marker, key string) (string, bool) {
	for _, m := range markers {
		if m.Key == key {
			return m.Value, true
		}
	}
	return "", false
}
