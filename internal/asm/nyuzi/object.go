package asm_nyuzi

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/tetratelabs/nyuzi/internal/asm"
	"github.com/tetratelabs/nyuzi/internal/reloc"
)

// Symbol is a label of an Object.
type Symbol struct {
	Name    string
	Section string
	Offset  int
	Global  bool
	// Defined is false for a symbol which is referenced or declared global, but has no label.
	Defined bool
}

// Object is the result of assembling one source: its sections, with the fixups that could not be resolved locally,
// and its symbols sorted by name.
type Object struct {
	Sections []*asm.Section
	Symbols  []Symbol
}

// Section returns the section with the given name, or nil.
func (o *Object) Section(name string) *asm.Section {
	for _, s := range o.Sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Symbol returns the symbol with the given name.
func (o *Object) Symbol(name string) (Symbol, bool) {
	i := sort.Search(len(o.Symbols), func(i int) bool { return o.Symbols[i].Name >= name })
	if i < len(o.Symbols) && o.Symbols[i].Name == name {
		return o.Symbols[i], true
	}
	return Symbol{}, false
}

// SectionAlignment is the alignment of each section in a linked image, which is the vector register width.
const SectionAlignment = 64

// Link lays out the sections in order starting at base, resolves every remaining fixup, and returns the image.
func (o *Object) Link(base uint32) ([]byte, error) {
	addrs := make(map[string]int64, len(o.Sections))
	var image asm.Section
	for _, s := range o.Sections {
		if err := image.Align(SectionAlignment); err != nil {
			return nil, err
		}
		addrs[s.Name] = int64(base) + int64(image.Len())
		_, _ = image.Write(s.Bytes())
	}
	lookup := func(name string) (int64, bool) {
		sym, ok := o.Symbol(name)
		if !ok || !sym.Defined {
			return 0, false
		}
		return addrs[sym.Section] + int64(sym.Offset), true
	}
	for _, s := range o.Sections {
		start := int(addrs[s.Name] - int64(base))
		for _, f := range s.Fixups() {
			v, err := asm.EvaluateWith(f.Value, lookup)
			if errors.Is(err, asm.ErrNotConstant) {
				return nil, fmt.Errorf("%s: undefined symbol in %s", f.Pos, f.Value)
			} else if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Pos, err)
			}
			at := start + f.Offset
			kind := reloc.Kind(f.Kind)
			if isPCRelative(kind) {
				v -= int64(base) + int64(at) + 4
			}
			word, err := ApplyFixup(image.Uint32At(at), kind, v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Pos, err)
			}
			image.PutUint32At(at, word)
		}
	}
	return image.Bytes(), nil
}

// ObjectStreamer is an asm.Streamer which encodes instructions into an Object.
type ObjectStreamer struct {
	sections []*asm.Section
	cur      *asm.Section
	symbols  map[string]*Symbol
	logger   logrus.FieldLogger
}

// NewObjectStreamer returns an ObjectStreamer positioned in the ".text" section. logger may be nil.
func NewObjectStreamer(logger logrus.FieldLogger) *ObjectStreamer {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	s := &ObjectStreamer{symbols: map[string]*Symbol{}, logger: logger}
	_ = s.SwitchSection(".text", asm.Pos{})
	return s
}

// EmitInstruction implements asm.Streamer.EmitInstruction
func (s *ObjectStreamer) EmitInstruction(inst *asm.Inst) error {
	if s.cur.Len()%4 != 0 {
		return fmt.Errorf("misaligned instruction at offset %d", s.cur.Len())
	}
	if err := Encode(inst, s.cur); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"section": s.cur.Name, "offset": s.cur.Len() - 4}).
		Debugf("encoded %s", InstructionName(inst.Opcode))
	return nil
}

// EmitLabel implements asm.Streamer.EmitLabel
func (s *ObjectStreamer) EmitLabel(name string, _ asm.Pos) error {
	sym := s.symbol(name)
	if sym.Defined {
		return fmt.Errorf("symbol %q is already defined", name)
	}
	sym.Defined = true
	sym.Section = s.cur.Name
	sym.Offset = s.cur.Len()
	return nil
}

// EmitValue implements asm.Streamer.EmitValue
func (s *ObjectStreamer) EmitValue(value asm.Expr, size int, pos asm.Pos) error {
	v, err := value.Evaluate()
	if errors.Is(err, asm.ErrNotConstant) {
		if size != 4 {
			return fmt.Errorf("expression %s needs a 4-byte value", value)
		}
		s.cur.AddFixup(asm.Fixup{Offset: s.cur.Len(), Value: value, Kind: uint32(reloc.R_NYUZI_ABS32), Pos: pos})
		s.cur.WriteUint32(0)
		return nil
	} else if err != nil {
		return err
	}
	switch size {
	case 1:
		if v < -(1<<7) || v >= 1<<8 {
			return fmt.Errorf("%w: %d does not fit in a byte", ErrOutOfRange, v)
		}
		_ = s.cur.WriteByte(byte(v))
	case 2:
		if v < -(1<<15) || v >= 1<<16 {
			return fmt.Errorf("%w: %d does not fit in 16 bits", ErrOutOfRange, v)
		}
		s.cur.WriteUint16(uint16(v))
	case 4:
		if v < -(1<<31) || v >= 1<<32 {
			return fmt.Errorf("%w: %d does not fit in 32 bits", ErrOutOfRange, v)
		}
		s.cur.WriteUint32(uint32(v))
	default:
		return fmt.Errorf("invalid value size %d", size)
	}
	return nil
}

// EmitAlign implements asm.Streamer.EmitAlign
func (s *ObjectStreamer) EmitAlign(alignment int, _ asm.Pos) error {
	return s.cur.Align(alignment)
}

// EmitGlobal implements asm.Streamer.EmitGlobal
func (s *ObjectStreamer) EmitGlobal(name string, _ asm.Pos) error {
	s.symbol(name).Global = true
	return nil
}

// SwitchSection implements asm.Streamer.SwitchSection
func (s *ObjectStreamer) SwitchSection(name string, _ asm.Pos) error {
	for _, sec := range s.sections {
		if sec.Name == name {
			s.cur = sec
			return nil
		}
	}
	s.cur = asm.NewSection(name)
	s.sections = append(s.sections, s.cur)
	return nil
}

func (s *ObjectStreamer) symbol(name string) *Symbol {
	sym, ok := s.symbols[name]
	if !ok {
		sym = &Symbol{Name: name}
		s.symbols[name] = sym
	}
	return sym
}

// Finish resolves the PC relative fixups against labels of the same section and returns the Object. Other fixups
// are kept for Object.Link.
func (s *ObjectStreamer) Finish() (*Object, error) {
	for _, sec := range s.sections {
		var pending []asm.Fixup
		for _, f := range sec.Fixups() {
			kind := reloc.Kind(f.Kind)
			if !isPCRelative(kind) {
				pending = append(pending, f)
				continue
			}
			v, err := asm.EvaluateWith(f.Value, func(name string) (int64, bool) {
				sym, ok := s.symbols[name]
				if !ok || !sym.Defined || sym.Section != sec.Name {
					return 0, false
				}
				return int64(sym.Offset), true
			})
			if errors.Is(err, asm.ErrNotConstant) {
				pending = append(pending, f)
				continue
			} else if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Pos, err)
			}
			word, err := ApplyFixup(sec.Uint32At(f.Offset), kind, v-int64(f.Offset)-4)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Pos, err)
			}
			sec.PutUint32At(f.Offset, word)
		}
		sec.SetFixups(pending)
		for _, f := range pending {
			for _, name := range asm.Symbols(f.Value) {
				s.symbol(name)
			}
		}
	}

	obj := &Object{Sections: s.sections}
	for _, sym := range s.symbols {
		obj.Symbols = append(obj.Symbols, *sym)
	}
	sort.Slice(obj.Symbols, func(i, j int) bool { return obj.Symbols[i].Name < obj.Symbols[j].Name })
	return obj, nil
}

func isPCRelative(kind reloc.Kind) bool {
	switch kind {
	case reloc.R_NYUZI_BRANCH, reloc.R_NYUZI_PCREL_MEM, reloc.R_NYUZI_PCREL_MEM_EXT:
		return true
	}
	return false
}
