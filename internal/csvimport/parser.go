package csvimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Parser reads a header-led CSV stream row by row.
type Parser struct {
	reader    *csv.Reader
	headers   []string
	headerMap map[string]int
}

// Row is one data record keyed by header name.
type Row struct {
	Line  int
	data  map[string]string
	extra []string
}

// Get returns the value of a column and whether the column exists.
func (r *Row) Get(column string) (string, bool) {
	v, ok := r.data[column]
	return v, ok
}

// Extra returns the fields found past the last header column, in order.
func (r *Row) Extra() []string {
	return r.extra
}

func (r *Row) isEmpty() bool {
	for _, v := range r.data {
		if v != "" {
			return false
		}
	}
	for _, v := range r.extra {
		if v != "" {
			return false
		}
	}
	return true
}

// NewParser strips a UTF-8 BOM, checks the encoding of the first block and
// reads the header row.
func NewParser(r io.Reader) (*Parser, error) {
	br := bufio.NewReader(r)

	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	head, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) == 0 {
		return nil, ErrEmptyFile
	}
	if !validUTF8Prefix(head) {
		return nil, ErrInvalidEncoding
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	p := &Parser{reader: reader, headerMap: make(map[string]int)}
	if err := p.readHeader(); err != nil {
		return nil, err
	}
	return p, nil
}

// validUTF8Prefix allows a multi-byte rune cut at the end of the peeked block.
func validUTF8Prefix(b []byte) bool {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return true
		}
		b = b[:len(b)-1]
	}
	return utf8.Valid(b)
}

func (p *Parser) readHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	for i, h := range record {
		if !utf8.ValidString(h) {
			return ErrInvalidEncoding
		}
		h = strings.TrimSpace(h)
		p.headers = append(p.headers, h)
		p.headerMap[h] = i
	}
	return nil
}

// Headers returns the header names in file order.
func (p *Parser) Headers() []string {
	return p.headers
}

// HasColumn reports whether the header row declared column.
func (p *Parser) HasColumn(column string) bool {
	_, ok := p.headerMap[column]
	return ok
}

// Next returns the next non-blank row, or io.EOF at the end of input.
// Fields missing from a short record are absent from the row; fields past
// the header width are kept in Row.Extra. Row.Line is the line the record
// starts on. Every field must be valid UTF-8.
func (p *Parser) Next() (*Row, error) {
	for {
		record, err := p.reader.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			line := 0
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				line = parseErr.StartLine
			}
			return nil, &RowError{Line: line, Code: ErrCodeMalformedRow, Message: err.Error(), Err: err}
		}

		line, _ := p.reader.FieldPos(0)
		if err := p.checkEncoding(line, record); err != nil {
			return nil, err
		}

		row := &Row{Line: line, data: make(map[string]string, len(p.headers))}
		for i, field := range record {
			field = strings.TrimSpace(field)
			if i < len(p.headers) {
				row.data[p.headers[i]] = field
			} else {
				row.extra = append(row.extra, field)
			}
		}
		if row.isEmpty() {
			continue
		}
		return row, nil
	}
}

func (p *Parser) checkEncoding(line int, record []string) error {
	for i, field := range record {
		if utf8.ValidString(field) {
			continue
		}
		column := ""
		if i < len(p.headers) {
			column = p.headers[i]
		}
		return NewRowError(line, column, ErrCodeInvalidValue, "", ErrInvalidEncoding)
	}
	return nil
}
