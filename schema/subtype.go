package schema

import "strings"

// Subtype is the semantic classification of a column layered over its SQL
// type.
type Subtype string

const (
	// SubtypeNone means no rule classified the column.
	SubtypeNone Subtype = ""
	// SubtypeInvalid means the column metadata could not be read, so the
	// subtype is unknown rather than absent.
	SubtypeInvalid Subtype = "!invalid"

	SubtypeForeignKey Subtype = "foreign_key"
	SubtypeImage      Subtype = "image"
	SubtypeFile       Subtype = "file"
	SubtypePassword   Subtype = "password"
	SubtypeEmail      Subtype = "email"
	SubtypeURL        Subtype = "url"
	SubtypePhone      Subtype = "phone"
	SubtypeInteger    Subtype = "integer"
	SubtypeFloat      Subtype = "float"
	SubtypeBoolean    Subtype = "boolean"
	SubtypeDate       Subtype = "date"
	SubtypeDatetime   Subtype = "datetime"
	SubtypeTime       Subtype = "time"
	SubtypeText       Subtype = "text"
	SubtypeString     Subtype = "string"
	SubtypeEnum       Subtype = "enum"
	SubtypeSet        Subtype = "set"
	SubtypeBinary     Subtype = "binary"
	SubtypeCSVInt     Subtype = "csv_int"
	SubtypeCSVString  Subtype = "csv_string"
	SubtypeCurrency   Subtype = "currency"
	SubtypeColor      Subtype = "color"
	SubtypeBitfield   Subtype = "bitfield"
	SubtypeTimestamp  Subtype = "timestamp"
	SubtypeYear       Subtype = "year"
)

// KnownSubtypes lists the subtypes metadata may declare explicitly.
var KnownSubtypes = []Subtype{
	SubtypeForeignKey, SubtypeImage, SubtypeFile, SubtypePassword, SubtypeEmail,
	SubtypeURL, SubtypePhone, SubtypeInteger, SubtypeFloat, SubtypeBoolean,
	SubtypeDate, SubtypeDatetime, SubtypeTime, SubtypeText, SubtypeString,
	SubtypeEnum, SubtypeSet, SubtypeBinary, SubtypeCSVInt, SubtypeCSVString,
	SubtypeCurrency, SubtypeColor, SubtypeBitfield, SubtypeTimestamp, SubtypeYear,
}

// namedSubtypes is matched in order against the column name.
var namedSubtypes = []Subtype{
	SubtypeImage, SubtypeFile, SubtypePassword, SubtypeEmail, SubtypeURL, SubtypePhone,
}

var structuralSubtypes = map[string]Subtype{
	"int": SubtypeInteger, "integer": SubtypeInteger, "tinyint": SubtypeInteger,
	"smallint": SubtypeInteger, "mediumint": SubtypeInteger, "bigint": SubtypeInteger,
	"serial": SubtypeInteger,

	"decimal": SubtypeFloat, "numeric": SubtypeFloat, "float": SubtypeFloat,
	"double": SubtypeFloat, "real": SubtypeFloat,

	"bool": SubtypeBoolean, "boolean": SubtypeBoolean,

	"date":      SubtypeDate,
	"datetime":  SubtypeDatetime,
	"timestamp": SubtypeTime,
	"time":      SubtypeTime,

	"text": SubtypeText, "tinytext": SubtypeText, "mediumtext": SubtypeText, "longtext": SubtypeText,

	"char": SubtypeString, "varchar": SubtypeString,

	"enum": SubtypeEnum,
	"set":  SubtypeSet,

	"binary": SubtypeBinary, "varbinary": SubtypeBinary, "blob": SubtypeBinary,
	"tinyblob": SubtypeBinary, "mediumblob": SubtypeBinary, "longblob": SubtypeBinary,
}

func (t Subtype) String() string {
	return string(t)
}

// Subtype classifies a column. The first matching rule wins:
//  1. a foreign key makes it foreign_key;
//  2. an explicit "subtype" metadata key;
//  3. the column name containing image, file, password, email, url or phone;
//  4. the base type family.
//
// When the column metadata is malformed, SubtypeInvalid is returned with the
// *MetadataError, never SubtypeNone.
func (s *Store) Subtype(table, column string) (Subtype, error) {
	c, err := s.column(table, column)
	if err != nil {
		return SubtypeNone, err
	}
	if c.ForeignKey != nil {
		return SubtypeForeignKey, nil
	}

	key := columnKey{table, column}
	if merr := s.metaErr[key]; merr != nil {
		return SubtypeInvalid, merr
	}
	if v, ok := s.meta[key]["subtype"]; ok && v != "" {
		return Subtype(v), nil
	}
	return inferredSubtype(c), nil
}

// FallbackSubtype classifies a column by its foreign key, name and type,
// ignoring its metadata. It is what Subtype falls back to for a column
// whose metadata is malformed.
func (s *Store) FallbackSubtype(table, column string) (Subtype, error) {
	c, err := s.column(table, column)
	if err != nil {
		return SubtypeNone, err
	}
	if c.ForeignKey != nil {
		return SubtypeForeignKey, nil
	}
	return inferredSubtype(c), nil
}

func inferredSubtype(c *Column) Subtype {
	name := strings.ToLower(c.Name)
	for _, st := range namedSubtypes {
		if strings.Contains(name, string(st)) {
			return st
		}
	}
	if strings.Contains(name, "mail") {
		return SubtypeEmail
	}
	return structuralSubtype(c.Type)
}

func structuralSubtype(raw string) Subtype {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(lower, "tinyint(1)") {
		return SubtypeBoolean
	}
	fields := strings.Fields(baseType(lower))
	if len(fields) == 0 {
		return SubtypeNone
	}
	return structuralSubtypes[fields[0]]
}
