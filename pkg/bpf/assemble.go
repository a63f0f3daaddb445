package bpf

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// SyntaxError reports a problem on one line of assembler input.
type SyntaxError struct {
	Line int
	Text string
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
}

type fixup struct {
	slot  int
	label string
	line  int
	text  string
}

type assembler struct {
	prog   Program
	labels map[string]int
	fixups []fixup
	line   int
	text   string
}

// Assemble parses the text syntax produced by Instruction.String:
//
//	mov64 r0, 1          alu ops: add sub mul div or and lsh rsh neg mod xor mov arsh, suffix 32 or 64
//	le16 r1 / be64 r1    byte order conversion
//	ldxw r0, [r1+4]      load, sizes b h w dw
//	stxdw [r10-8], r1    store register
//	stw [r10-4], 7       store immediate
//	xadddw [r1+0], r2    atomic add
//	lddw r1, 0x1234      64-bit constant (two slots)
//	jeq r1, 5, done      conditional jump to a label or relative +N/-N
//	ja +2 / call 5 / exit
//
// Comments start with ';' or '#'. A line may start with "label:" or a slot number "12:".
func Assemble(src string) (Program, error) {
	a := &assembler{labels: make(map[string]int)}
	for n, line := range strings.Split(src, "\n") {
		a.line, a.text = n+1, line
		if err := a.parseLine(line); err != nil {
			return nil, err
		}
	}
	for _, f := range a.fixups {
		target, ok := a.labels[f.label]
		if !ok {
			return nil, &SyntaxError{Line: f.line, Text: f.text, Msg: "undefined label " + f.label}
		}
		off, err := safecast.Conv[int16](target - f.slot - 1)
		if err != nil {
			return nil, &SyntaxError{Line: f.line, Text: f.text, Msg: "jump out of range"}
		}
		a.prog[f.slot].Off = off
	}
	return a.prog, nil
}

func (a *assembler) errorf(format string, args ...any) error {
	return &SyntaxError{Line: a.line, Text: a.text, Msg: fmt.Sprintf(format, args...)}
}

func (a *assembler) parseLine(line string) error {
	if i := strings.IndexAny(line, ";#"); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	for {
		i := strings.IndexByte(line, ':')
		if i < 0 || strings.ContainsAny(line[:i], " \t,[") {
			break
		}
		label := line[:i]
		if _, err := strconv.Atoi(label); err != nil {
			if _, dup := a.labels[label]; dup {
				return a.errorf("duplicate label %s", label)
			}
			a.labels[label] = len(a.prog)
		}
		line = strings.TrimSpace(line[i+1:])
	}
	if line == "" {
		return nil
	}
	mnemonic, rest, _ := strings.Cut(line, " ")
	var ops []string
	if rest = strings.TrimSpace(rest); rest != "" {
		for _, op := range strings.Split(rest, ",") {
			ops = append(ops, strings.TrimSpace(op))
		}
	}
	return a.parseInstruction(strings.ToLower(mnemonic), ops)
}

func (a *assembler) emit(i Instruction) {
	a.prog = append(a.prog, i)
}

func (a *assembler) want(ops []string, n int) error {
	if len(ops) != n {
		return a.errorf("want %d operands, have %d", n, len(ops))
	}
	return nil
}

func (a *assembler) parseInstruction(m string, ops []string) error {
	switch {
	case m == "exit":
		a.emit(Exit())
		return nil
	case m == "call":
		if err := a.want(ops, 1); err != nil {
			return err
		}
		imm, err := a.imm32(ops[0])
		if err != nil {
			return err
		}
		a.emit(Call(imm))
		return nil
	case m == "ja":
		if err := a.want(ops, 1); err != nil {
			return err
		}
		return a.jump(Ja(0), ops[0])
	case m == "lddw":
		return a.parseLoadImm64(ops)
	case m == ".imm":
		if err := a.want(ops, 1); err != nil {
			return err
		}
		imm, err := a.imm32(ops[0])
		if err != nil {
			return err
		}
		a.emit(Instruction{Imm: imm})
		return nil
	case m == ".raw":
		return a.parseRaw(ops)
	case strings.HasPrefix(m, "le") || strings.HasPrefix(m, "be"):
		if bits, err := strconv.Atoi(m[2:]); err == nil {
			return a.parseEndian(m[:2], bits, ops)
		}
	case strings.HasPrefix(m, "ldabs"), strings.HasPrefix(m, "ldind"):
		return a.parsePacketLoad(m, ops)
	case strings.HasPrefix(m, "ldx"):
		return a.parseMem(ClassLDX, ModeMEM, m[3:], ops)
	case strings.HasPrefix(m, "stx"):
		return a.parseMem(ClassSTX, ModeMEM, m[3:], ops)
	case strings.HasPrefix(m, "xadd"):
		return a.parseMem(ClassSTX, ModeXADD, m[4:], ops)
	case strings.HasPrefix(m, "st"):
		return a.parseMem(ClassST, ModeMEM, m[2:], ops)
	}
	if strings.HasPrefix(m, "j") {
		return a.parseJump(m, ops)
	}
	return a.parseALU(m, ops)
}

func (a *assembler) parseALU(m string, ops []string) error {
	var class Class
	switch {
	case strings.HasSuffix(m, "64"):
		class = ClassALU64
	case strings.HasSuffix(m, "32"):
		class = ClassALU
	default:
		return a.errorf("unknown mnemonic %s", m)
	}
	name := m[:len(m)-2]
	for op, n := range aluNames {
		if n != name {
			continue
		}
		if op == OpNEG {
			if err := a.want(ops, 1); err != nil {
				return err
			}
			dst, err := a.reg(ops[0])
			if err != nil {
				return err
			}
			a.emit(Instruction{Code: ALUOpcode(class, op, SrcK), Dst: dst})
			return nil
		}
		if err := a.want(ops, 2); err != nil {
			return err
		}
		dst, err := a.reg(ops[0])
		if err != nil {
			return err
		}
		if src, err := a.reg(ops[1]); err == nil {
			a.emit(Instruction{Code: ALUOpcode(class, op, SrcX), Dst: dst, Src: src})
			return nil
		}
		imm, err := a.imm32(ops[1])
		if err != nil {
			return err
		}
		a.emit(Instruction{Code: ALUOpcode(class, op, SrcK), Dst: dst, Imm: imm})
		return nil
	}
	return a.errorf("unknown mnemonic %s", m)
}

func (a *assembler) parseEndian(order string, bits int, ops []string) error {
	if bits != 16 && bits != 32 && bits != 64 {
		return a.errorf("byte swap width must be 16, 32 or 64")
	}
	if err := a.want(ops, 1); err != nil {
		return err
	}
	dst, err := a.reg(ops[0])
	if err != nil {
		return err
	}
	src := ToLE
	if order == "be" {
		src = ToBE
	}
	a.emit(Endian(src, dst, int32(bits)))
	return nil
}

func (a *assembler) size(s string) (Size, error) {
	for size, name := range sizeSuffix {
		if name == s {
			return size, nil
		}
	}
	return 0, a.errorf("unknown access size %q", s)
}

func (a *assembler) parseMem(class Class, mode Mode, suffix string, ops []string) error {
	size, err := a.size(suffix)
	if err != nil {
		return err
	}
	if err := a.want(ops, 2); err != nil {
		return err
	}
	code := MemOpcode(class, mode, size)
	if class == ClassLDX {
		dst, err := a.reg(ops[0])
		if err != nil {
			return err
		}
		src, off, err := a.memRef(ops[1])
		if err != nil {
			return err
		}
		a.emit(Instruction{Code: code, Dst: dst, Src: src, Off: off})
		return nil
	}
	dst, off, err := a.memRef(ops[0])
	if err != nil {
		return err
	}
	if class == ClassST {
		imm, err := a.imm32(ops[1])
		if err != nil {
			return err
		}
		a.emit(Instruction{Code: code, Dst: dst, Off: off, Imm: imm})
		return nil
	}
	src, err := a.reg(ops[1])
	if err != nil {
		return err
	}
	a.emit(Instruction{Code: code, Dst: dst, Src: src, Off: off})
	return nil
}

func (a *assembler) parsePacketLoad(m string, ops []string) error {
	mode := ModeABS
	if strings.HasPrefix(m, "ldind") {
		mode = ModeIND
	}
	size, err := a.size(m[5:])
	if err != nil {
		return err
	}
	ins := Instruction{Code: MemOpcode(ClassLD, mode, size)}
	if mode == ModeIND {
		if err := a.want(ops, 2); err != nil {
			return err
		}
		if ins.Src, err = a.reg(ops[0]); err != nil {
			return err
		}
		ops = ops[1:]
	}
	if err := a.want(ops, 1); err != nil {
		return err
	}
	if ins.Imm, err = a.imm32(ops[0]); err != nil {
		return err
	}
	a.emit(ins)
	return nil
}

func (a *assembler) parseLoadImm64(ops []string) error {
	if err := a.want(ops, 2); err != nil {
		return err
	}
	dst, err := a.reg(ops[0])
	if err != nil {
		return err
	}
	v, err := a.imm64(ops[1])
	if err != nil {
		return err
	}
	pair := LoadImm64(dst, v)
	a.emit(pair[0])
	a.emit(pair[1])
	return nil
}

func (a *assembler) parseJump(m string, ops []string) error {
	class := ClassJMP
	if strings.HasSuffix(m, "32") {
		class = ClassJMP32
		m = strings.TrimSuffix(m, "32")
	}
	for op, n := range jumpNames {
		if n != m || op == OpJA || op == OpCALL || op == OpEXIT {
			continue
		}
		if err := a.want(ops, 3); err != nil {
			return err
		}
		dst, err := a.reg(ops[0])
		if err != nil {
			return err
		}
		ins := Instruction{Code: Opcode(uint8(op) | uint8(class)), Dst: dst}
		if src, err := a.reg(ops[1]); err == nil {
			ins.Code |= Opcode(SrcX)
			ins.Src = src
		} else if ins.Imm, err = a.imm32(ops[1]); err != nil {
			return err
		}
		return a.jump(ins, ops[2])
	}
	return a.errorf("unknown mnemonic %s", m)
}

// jump emits ins with its offset taken from target: +N/-N or a label.
func (a *assembler) jump(ins Instruction, target string) error {
	if strings.HasPrefix(target, "+") || strings.HasPrefix(target, "-") {
		v, err := strconv.ParseInt(target, 0, 64)
		if err != nil {
			return a.errorf("bad jump offset %s", target)
		}
		if ins.Off, err = safecast.Conv[int16](v); err != nil {
			return a.errorf("jump offset %s out of range", target)
		}
		a.emit(ins)
		return nil
	}
	a.fixups = append(a.fixups, fixup{slot: len(a.prog), label: target, line: a.line, text: a.text})
	a.emit(ins)
	return nil
}

func (a *assembler) parseRaw(ops []string) error {
	if err := a.want(ops, 5); err != nil {
		return err
	}
	var f [5]int64
	for n, op := range ops {
		v, err := strconv.ParseInt(op, 0, 64)
		if err != nil {
			return a.errorf("bad number %s", op)
		}
		f[n] = v
	}
	code, err1 := safecast.Conv[uint8](f[0])
	dst, err2 := safecast.Conv[uint8](f[1])
	src, err3 := safecast.Conv[uint8](f[2])
	off, err4 := safecast.Conv[int16](f[3])
	imm, err5 := safecast.Conv[int32](f[4])
	for _, err := range []error{err1, err2, err3, err4, err5} {
		if err != nil {
			return a.errorf(".raw field out of range: %v", err)
		}
	}
	a.emit(Instruction{Code: Opcode(code), Dst: dst & 0x0f, Src: src & 0x0f, Off: off, Imm: imm})
	return nil
}

func (a *assembler) reg(s string) (uint8, error) {
	s = strings.ToLower(s)
	if s == "fp" {
		return FP, nil
	}
	if !strings.HasPrefix(s, "r") {
		return 0, a.errorf("expected register, have %s", s)
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 0 || n >= NumRegs {
		return 0, a.errorf("bad register %s", s)
	}
	return uint8(n), nil
}

func (a *assembler) imm32(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, a.errorf("bad immediate %s", s)
	}
	// Unsigned 32-bit spellings such as 0xffffffff are accepted and wrap.
	if v > 0x7fffffff && v <= 0xffffffff {
		v = int64(int32(uint32(v)))
	}
	imm, err := safecast.Conv[int32](v)
	if err != nil {
		return 0, a.errorf("immediate %s does not fit 32 bits", s)
	}
	return imm, nil
}

func (a *assembler) imm64(s string) (uint64, error) {
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return uint64(v), nil
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, a.errorf("bad immediate %s", s)
	}
	return v, nil
}

func (a *assembler) memRef(s string) (uint8, int16, error) {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return 0, 0, a.errorf("expected [reg+off], have %s", s)
	}
	s = strings.TrimSpace(s[1 : len(s)-1])
	i := strings.IndexAny(s, "+-")
	if i < 0 {
		r, err := a.reg(s)
		return r, 0, err
	}
	r, err := a.reg(strings.TrimSpace(s[:i]))
	if err != nil {
		return 0, 0, err
	}
	v, err := strconv.ParseInt(strings.ReplaceAll(s[i:], " ", ""), 0, 64)
	if err != nil {
		return 0, 0, a.errorf("bad offset in %s", s)
	}
	off, err := safecast.Conv[int16](v)
	if err != nil {
		return 0, 0, a.errorf("offset %d out of range", v)
	}
	return r, off, nil
}
