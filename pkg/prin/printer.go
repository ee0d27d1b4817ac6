package prin

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Pprint pretty-prints v to w using the given options (nil for defaults),
// followed by a trailing newline.
func Pprint(w io.Writer, v any, opts *Options) error {
	s := NewStream(w, opts)
	p := &printer{s: s}
	if err := p.writeValue(v); err != nil {
		return err
	}
	s.Text("\n")
	return s.Flush()
}

// PprintString pretty-prints v into a string.
func PprintString(v any, opts *Options) (string, error) {
	var b strings.Builder
	if err := Pprint(&b, v, opts); err != nil {
		return "", err
	}
	return b.String(), nil
}

// FormatValue reformats already-printed source: every value read from src is
// pretty-printed back out. Formatting is idempotent for a fixed width.
func FormatValue(src string, opts *Options) (string, error) {
	vals, err := ReadAll(src)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, v := range vals {
		if err := Pprint(&b, v, opts); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// printer walks a value's shape recursively, driving a Stream.
type printer struct {
	s     *Stream
	depth int
}

func (p *printer) writeValue(v any) error {
	if d := p.s.opts.Dispatch; d != nil {
		handled, err := d(p.s, v)
		if err != nil {
			return err
		}
		if handled {
			return nil
		}
	}

	switch val := v.(type) {
	case nil:
		p.s.Text("nil")
	case bool:
		p.s.Text(strconv.FormatBool(val))
	case string:
		if p.s.opts.Readably {
			p.s.Text(quoteString(val))
		} else {
			p.s.Text(val)
		}
	case Symbol:
		p.s.Text(string(val))
	case Keyword:
		p.s.Text(val.String())
	case Char:
		p.writeChar(val)
	case int:
		p.writeInt(int64(val))
	case int8:
		p.writeInt(int64(val))
	case int16:
		p.writeInt(int64(val))
	case int32:
		p.writeInt(int64(val))
	case int64:
		p.writeInt(val)
	case uint:
		p.s.Text(strconv.FormatUint(uint64(val), p.s.opts.Radix))
	case uint64:
		p.s.Text(strconv.FormatUint(val, p.s.opts.Radix))
	case float32:
		p.s.Text(strconv.FormatFloat(float64(val), 'g', -1, 32))
	case float64:
		p.s.Text(strconv.FormatFloat(val, 'g', -1, 64))
	case List:
		return p.writeSeq("(", ")", val, Linear)
	case Vector:
		return p.writeSeq("[", "]", val, Linear)
	case Set:
		return p.writeSeq("#{", "}", val, Linear)
	case Map:
		return p.writeMap(val)
	case []any:
		return p.writeSeq("[", "]", val, Linear)
	case error:
		p.s.Text(val.Error())
	case fmt.Stringer:
		p.s.Text(val.String())
	default:
		p.s.Text(fmt.Sprintf("%v", val))
	}
	return nil
}

func (p *printer) writeChar(c Char) {
	if !p.s.opts.Readably {
		p.s.Text(string(rune(c)))
		return
	}
	if name, ok := namedChars[rune(c)]; ok {
		p.s.Text(`\` + name)
		return
	}
	p.s.Text(`\` + string(rune(c)))
}

func (p *printer) writeInt(n int64) {
	p.s.Text(strconv.FormatInt(n, p.s.opts.Radix))
}

// enter starts a nested collection, enforcing the depth limit. The caller
// must only close the block when ok is true.
func (p *printer) enter(prefix, suffix string) (ok bool) {
	if max := p.s.opts.MaxDepth; max > 0 && p.depth >= max {
		p.s.Text("#")
		return false
	}
	p.depth++
	p.s.Begin(prefix, suffix)
	return true
}

func (p *printer) leave() {
	p.s.End()
	p.depth--
}

func (p *printer) writeSeq(prefix, suffix string, elems []any, kind NewlineKind) error {
	if !p.enter(prefix, suffix) {
		return nil
	}
	defer p.leave()
	for i, e := range elems {
		if i > 0 {
			p.s.Text(" ")
			p.s.Newline(kind)
		}
		if p.truncated(i) {
			break
		}
		if err := p.writeValue(e); err != nil {
			return err
		}
	}
	return nil
}

func (p *printer) writeMap(m Map) error {
	if !p.enter("{", "}") {
		return nil
	}
	defer p.leave()
	for i, e := range m {
		if i > 0 {
			p.s.Text(", ")
			p.s.Newline(Fill)
		}
		if p.truncated(i) {
			break
		}
		p.s.Begin("", "")
		if err := p.writeValue(e.Key); err != nil {
			p.s.End()
			return err
		}
		p.s.Text(" ")
		p.s.Newline(Linear)
		if err := p.writeValue(e.Val); err != nil {
			p.s.End()
			return err
		}
		p.s.End()
	}
	return nil
}

// truncated writes the length-limit ellipsis when element i would exceed
// the configured print length.
func (p *printer) truncated(i int) bool {
	if max := p.s.opts.MaxLength; max > 0 && i >= max {
		p.s.Text("...")
		return true
	}
	return false
}
