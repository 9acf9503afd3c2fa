package main

import (
	"encoding/json"
	"io"

	"github.com/golangsnmp/cdecl"
	"github.com/golangsnmp/cdecl/ctype"
)

// DeclJSON is the parse command's JSON form of one declaration.
type DeclJSON struct {
	Input    string     `json:"input"`
	Name     string     `json:"name,omitempty"`
	TypeName string     `json:"typeName"`
	Type     *TypeJSON  `json:"type,omitempty"`
	Return   *DeclJSON  `json:"return,omitempty"`
	Params   []DeclJSON `json:"params,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// TypeJSON describes a foreign-type descriptor.
type TypeJSON struct {
	Kind     string      `json:"kind"`
	Spelling string      `json:"spelling"`
	Size     int         `json:"size"`
	Align    int         `json:"align"`
	Depth    int         `json:"depth,omitempty"`
	Elem     string      `json:"elem,omitempty"`
	String   string      `json:"string,omitempty"` // "narrow" or "wide" for string pointers
	Complete *bool       `json:"complete,omitempty"`
	Union    bool        `json:"union,omitempty"`
	Conv     string      `json:"conv,omitempty"`
	Fields   []FieldJSON `json:"fields,omitempty"`
	Padding  [][2]int    `json:"padding,omitempty"`
}

// FieldJSON is one laid-out aggregate member.
type FieldJSON struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Size   int    `json:"size"`
}

// TokenJSON is one token of the tokens command.
type TokenJSON struct {
	Kind  string `json:"kind"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

func declToJSON(input string, d *cdecl.Declaration) DeclJSON {
	out := DeclJSON{
		Input:    input,
		Name:     d.Name(),
		TypeName: d.TypeName(),
		Type:     typeToJSON(d.Type(), false),
	}
	if d.IsFunc() {
		ret := declToJSON("", d.ReturnType())
		out.Return = &ret
		for _, p := range d.Params() {
			out.Params = append(out.Params, declToJSON("", p))
		}
	}
	return out
}

// typeToJSON describes t. Aggregate members are listed only when layout is
// set.
func typeToJSON(t ctype.Type, layout bool) *TypeJSON {
	out := &TypeJSON{
		Kind:     t.Kind().String(),
		Spelling: t.String(),
		Size:     t.Size(),
		Align:    t.Align(),
	}
	switch t := t.(type) {
	case *ctype.Pointer:
		out.Depth = t.Depth()
		out.Elem = t.Elem().String()
		switch t.StringClass() {
		case ctype.StringNarrow:
			out.String = "narrow"
		case ctype.StringWide:
			out.String = "wide"
		}
	case *ctype.Func:
		out.Conv = t.Conv().String()
	case *ctype.Aggregate:
		complete := t.IsComplete()
		out.Complete = &complete
		out.Union = t.IsUnion()
		if layout {
			for _, f := range t.Fields() {
				out.Fields = append(out.Fields, FieldJSON{
					Name:   f.Name,
					Type:   f.Type.String(),
					Offset: f.Offset,
					Size:   f.Type.Size(),
				})
			}
			out.Padding = t.Padding()
		}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
