// Copyright (c) 2024 The Data Fair Project and its Contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package datafair

import (
	"strings"
	"unicode"

	"github.com/data-fair/catalog-data-fair/catalogs"
)

// NormalizeSchema returns a copy of the given schema in canonical form:
// fields computed by an extension lose their extension marker and have their
// keys rewritten as query-safe slugs; all other fields pass through
// unchanged. Field order is preserved. The function has no side effects, and
// normalizing an already-normalized schema is a no-op.
func NormalizeSchema(schema []catalogs.SchemaField) []catalogs.SchemaField {
	normalized := make([]catalogs.SchemaField, len(schema))
	for i, field := range schema {
		if field.Extension != "" {
			field.Key = slugify(field.Key)
			field.Extension = ""
		}
		normalized[i] = field
	}
	return normalized
}

// creates a query-safe key for an extension field:
// * upper case characters are lowered
// * runs of non-alphanumeric characters collapse to a single '_'
// * the result never begins with an underscore
func slugify(key string) string {
	var slug strings.Builder
	pendingSep := false
	for _, c := range strings.ToLower(key) {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			if pendingSep {
				slug.WriteByte('_')
				pendingSep = false
			}
			slug.WriteRune(c)
		} else if slug.Len() > 0 {
			pendingSep = true
		}
	}
	return slug.String()
}
