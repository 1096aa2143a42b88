package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

const sniffSize = 4096

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parser reads a CSV stream whose first record names the columns
type Parser struct {
	reader  *csv.Reader
	headers []string
	index   map[string]int
	trim    bool
}

type parserOptions struct {
	delimiter rune
	trimSpace bool
}

// ParserOption is a functional option for Parser configuration
type ParserOption func(*parserOptions)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(o *parserOptions) {
		o.delimiter = d
	}
}

// WithTrimSpace controls trimming of surrounding whitespace (default on)
func WithTrimSpace(trim bool) ParserOption {
	return func(o *parserOptions) {
		o.trimSpace = trim
	}
}

// NewParser checks the encoding of r and reads its header row.
// Header names are matched case-insensitively.
func NewParser(r io.Reader, opts ...ParserOption) (*Parser, error) {
	o := parserOptions{delimiter: ',', trimSpace: true}
	for _, opt := range opts {
		opt(&o)
	}

	br := bufio.NewReaderSize(r, sniffSize)
	if err := checkEncoding(br); err != nil {
		return nil, err
	}

	cr := csv.NewReader(br)
	cr.Comma = o.delimiter
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = o.trimSpace
	cr.FieldsPerRecord = -1

	p := &Parser{reader: cr, index: make(map[string]int), trim: o.trimSpace}
	record, err := cr.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	fold := cases.Fold()
	for i, h := range record {
		name := fold.String(strings.TrimSpace(h))
		p.headers = append(p.headers, name)
		if _, dup := p.index[name]; !dup && name != "" {
			p.index[name] = i
		}
	}
	if len(p.index) == 0 {
		return nil, ErrMissingHeader
	}
	return p, nil
}

// checkEncoding rejects empty and non UTF-8 input and drops a leading BOM
func checkEncoding(br *bufio.Reader) error {
	head, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return fmt.Errorf("failed to read file for encoding validation: %w", err)
	}
	if len(bytes.TrimSpace(head)) == 0 {
		return ErrEmptyFile
	}
	if bytes.HasPrefix(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return err
		}
		head = head[len(utf8BOM):]
	}
	// a full buffer may end inside a multi-byte rune
	if len(head) >= sniffSize-len(utf8BOM) {
		for i := 0; i < utf8.UTFMax-1 && len(head) > 0 && !utf8.Valid(head); i++ {
			head = head[:len(head)-1]
		}
	}
	if !utf8.Valid(head) {
		return ErrInvalidEncoding
	}
	return nil
}

// Headers returns the normalised column names in file order
func (p *Parser) Headers() []string {
	return p.headers
}

// Missing returns the required columns absent from the header
func (p *Parser) Missing(required ...string) []string {
	var missing []string
	for _, col := range required {
		if _, ok := p.index[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// Next returns the next non-blank row, or io.EOF
func (p *Parser) Next() (*Row, error) {
	for {
		record, err := p.reader.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			var perr *csv.ParseError
			line := 0
			if errors.As(err, &perr) {
				line = perr.StartLine
			}
			return nil, RowError{Row: line, Code: ErrCodeCSVParsing, Message: err.Error()}
		}
		line, _ := p.reader.FieldPos(0)

		row := &Row{Line: line, values: make(map[string]string, len(p.index))}
		for name, i := range p.index {
			if i < len(record) {
				v := record[i]
				if p.trim {
					v = strings.TrimSpace(v)
				}
				row.values[name] = v
			}
		}
		if !row.IsEmpty() {
			return row, nil
		}
	}
}

// Row is one data record keyed by header name
type Row struct {
	Line   int
	values map[string]string
}

// Get returns the value of column, or "" when the column is absent
func (r *Row) Get(column string) string {
	return r.values[column]
}

// IsEmpty reports whether every field of the row is blank
func (r *Row) IsEmpty() bool {
	for _, v := range r.values {
		if v != "" {
			return false
		}
	}
	return true
}
