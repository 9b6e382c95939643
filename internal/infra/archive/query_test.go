package archive

import "testing"

func TestQuoteTerm(t *testing.T) {
	tests := []struct {
		name string
		term string
		want string
	}{
		{"plain token", "grateful", "grateful"},
		{"whitespace quoted", "foo bar", `"foo bar"`},
		{"plus escaped", "a+b", `a\+b`},
		{"colon escaped", "a:b", `a\:b`},
		{"backslash escaped", `a\b`, `a\\b`},
		{"boolean and escaped", "a&&b", `a\&&b`},
		{"boolean or escaped", "a||b", `a\||b`},
		{"brackets escaped", "[live]", `\[live\]`},
		{"date stays bare", "2014-01-01", "2014-01-01"},
		{"escaped and quoted", `say "hi"`, `"say \"hi\""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuoteTerm(tt.term); got != tt.want {
				t.Errorf("QuoteTerm(%q) = %q, want %q", tt.term, got, tt.want)
			}
		})
	}
}

func TestQueryString(t *testing.T) {
	tests := []struct {
		name  string
		terms []Term
		group string
		want  string
	}{
		{
			name:  "scalar value",
			terms: []Term{{Field: "title", Value: "foo"}},
			want:  "title:foo",
		},
		{
			name:  "single value list is grouped",
			terms: []Term{{Field: "title", Values: []string{"foo bar"}}},
			want:  `title:("foo bar")`,
		},
		{
			name:  "single escaped value stays unquoted",
			terms: []Term{{Field: "title", Values: []string{"a+b"}}},
			want:  `title:(a\+b)`,
		},
		{
			name:  "multi value or group",
			terms: []Term{{Field: "format", Values: []string{"Flac", "VBR MP3"}}},
			want:  `format:(Flac OR "VBR MP3")`,
		},
		{
			name:  "multi value and group",
			terms: []Term{{Field: "creator", Values: []string{"foo", "bar"}}},
			group: GroupAND,
			want:  "creator:(foo AND bar)",
		},
		{
			name: "terms joined with and",
			terms: []Term{
				{Field: "collection", Value: "etree"},
				{Field: "mediatype", Value: "audio"},
			},
			want: "collection:etree AND mediatype:audio",
		},
		{
			name:  "free text term",
			terms: []Term{{Value: "grateful dead"}},
			want:  `"grateful dead"`,
		},
		{
			name:  "scalar date stays bare",
			terms: []Term{{Field: "date", Value: "2014-01-01"}},
			want:  "date:2014-01-01",
		},
		{
			name:  "negated field",
			terms: []Term{{Field: "-mediatype", Values: []string{"web"}}},
			want:  "-mediatype:(web)",
		},
		{
			name: "empty values skipped",
			terms: []Term{
				{Field: "collection"},
				{Field: "title", Values: []string{""}},
				{Field: "mediatype", Value: "audio"},
			},
			want: "mediatype:audio",
		},
		{
			name: "no terms",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QueryString(tt.terms, tt.group); got != tt.want {
				t.Errorf("QueryString() = %q, want %q", got, tt.want)
			}
		})
	}
}
