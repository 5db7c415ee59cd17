package importer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hazyhaar/rebeauty/pkg/client"
	"github.com/hazyhaar/rebeauty/pkg/note"
	"github.com/hazyhaar/rebeauty/pkg/visit"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// ErrNoName marks a row without a customer name.
var ErrNoName = errors.New("name is empty")

// Row is one parsed CSV line. Err is set when the line cannot become a
// customer; Input is then incomplete.
type Row struct {
	Line  int
	Input client.CustomerInput
	Err   error
}

// Read parses a CSV export according to m. Structural errors (bad
// encoding, unknown column) fail the whole read; per-line problems are
// reported on the Row.
func Read(src io.Reader, m Mapping) ([]Row, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	var reader io.Reader = src
	if enc := m.Format.Encoding; enc != "" && !isUTF8(enc) {
		e, err := htmlindex.Get(enc)
		if err != nil {
			return nil, fmt.Errorf("unsupported encoding %q: %w", enc, err)
		}
		reader = transform.NewReader(src, e.NewDecoder())
	}

	r := csv.NewReader(skipBOM(reader))
	if delim := m.Format.Delimiter; delim != "" {
		r.Comma = []rune(delim)[0]
	}
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	var header []string
	if m.Format.HasHeader {
		h, err := r.Read()
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		header = make([]string, len(h))
		for i := range h {
			header[i] = strings.TrimSpace(h[i])
		}
	}

	cols, err := resolveColumns(m.Columns, header)
	if err != nil {
		return nil, err
	}
	sep := m.Format.ListSeparator
	if sep == "" {
		sep = ","
	}

	var rows []Row
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := r.FieldPos(0)
		if blank(record) {
			continue
		}
		in, rowErr := cols.build(record, sep)
		rows = append(rows, Row{Line: line, Input: in, Err: rowErr})
	}
	return rows, nil
}

// skipBOM drops a leading UTF-8 byte order mark, which Excel writes
// whether or not the file has a header row.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && string(b) == "\ufeff" {
		br.Discard(3)
	}
	return br
}

// resolved holds the column index of each mapped field, -1 when absent.
type resolved struct {
	name, kana, phone, email, birthday, optIn int

	address, skinType, skinConcerns, concernNote int
	idealSkin, idealNote, sensitive, memo        int
}

func resolveColumns(c ColumnSpec, header []string) (resolved, error) {
	var firstErr error
	idx := func(col string) int {
		i, err := columnIndex(col, header)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return i
	}
	r := resolved{
		name:         idx(c.Name),
		kana:         idx(c.Kana),
		phone:        idx(c.Phone),
		email:        idx(c.Email),
		birthday:     idx(c.Birthday),
		optIn:        idx(c.EmailOptIn),
		address:      idx(c.Address),
		skinType:     idx(c.SkinType),
		skinConcerns: idx(c.SkinConcerns),
		concernNote:  idx(c.ConcernNote),
		idealSkin:    idx(c.IdealSkin),
		idealNote:    idx(c.IdealNote),
		sensitive:    idx(c.SensitiveInfo),
		memo:         idx(c.Memo),
	}
	if firstErr == nil && r.name < 0 {
		firstErr = fmt.Errorf("name column %q not found in header %v", c.Name, header)
	}
	return r, firstErr
}

// columnIndex finds col in header, or reads it as a 1-based position.
// Columns missing from a header resolve to -1 so that one mapping can
// serve exports with fewer columns.
func columnIndex(col string, header []string) (int, error) {
	col = strings.TrimSpace(col)
	if col == "" {
		return -1, nil
	}
	for i, h := range header {
		if h == col {
			return i, nil
		}
	}
	if n, err := strconv.Atoi(col); err == nil && n >= 1 {
		return n - 1, nil
	}
	if header == nil {
		return -1, fmt.Errorf("column %q: file has no header, use a 1-based position", col)
	}
	return -1, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func splitList(s, sep string) []string {
	if sep == "," {
		return note.SplitList(s)
	}
	return note.SplitList(strings.ReplaceAll(s, sep, ","))
}

func (c resolved) build(record []string, sep string) (client.CustomerInput, error) {
	in := client.CustomerInput{
		Name:       field(record, c.name),
		Kana:       field(record, c.kana),
		Phone:      field(record, c.phone),
		Email:      field(record, c.email),
		EmailOptIn: Truthy(field(record, c.optIn)),
	}
	p := note.Profile{
		Address:       field(record, c.address),
		SkinType:      field(record, c.skinType),
		SkinConcerns:  splitList(field(record, c.skinConcerns), sep),
		ConcernNote:   field(record, c.concernNote),
		IdealSkin:     splitList(field(record, c.idealSkin), sep),
		IdealNote:     field(record, c.idealNote),
		SensitiveInfo: field(record, c.sensitive),
		Memo:          field(record, c.memo),
	}
	in.Note = note.Encode(p)

	if in.Name == "" {
		return in, ErrNoName
	}
	if b := field(record, c.birthday); b != "" {
		d, err := visit.ToAPIDate(b)
		if err != nil {
			return in, fmt.Errorf("birthday: %w", err)
		}
		in.Birthday = d
	}
	return in, nil
}

// Truthy reads the yes/no spellings found in salon exports.
func Truthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y", "on", "はい", "可", "○", "◯":
		return true
	}
	return false
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func isUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
