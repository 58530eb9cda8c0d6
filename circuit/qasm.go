package circuit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const qasmHeader = "OPENQASM 2.0;"

// QASM renders the circuit as OpenQASM 2.0. The qubit lives in q[0] and
// every measurement key gets its own one-bit classical register.
func (c *Circuit) QASM() string {
	var b strings.Builder

	b.WriteString(qasmHeader + "\n")
	b.WriteString("include \"qelib1.inc\";\n")
	b.WriteString("qreg q[1];\n")

	for _, key := range c.Keys() {
		fmt.Fprintf(&b, "creg %s[1];\n", key)
	}

	for _, op := range c.Ops {
		switch op.Gate {
		case Measure:
			fmt.Fprintf(&b, "measure q[0] -> %s[0];\n", op.Key)
		default:
			fmt.Fprintf(&b, "%s q[0];\n", strings.ToLower(string(op.Gate)))
		}
	}

	return b.String()
}

var (
	regPattern     = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_]*)\[(\d+)\]$`)
	measurePattern = regexp.MustCompile(`^measure\s+(\S+)\s*->\s*(\S+)$`)
)

// ParseQASM parses the OpenQASM 2.0 subset produced by QASM: a single
// one-qubit qreg, one-bit cregs, h/x gates and measurements.
func ParseQASM(src string) (*Circuit, error) {
	stmts := splitStatements(src)
	if len(stmts) == 0 || stmts[0] != strings.TrimSuffix(qasmHeader, ";") {
		return nil, fmt.Errorf("%w: missing %q header", ErrInvalid, qasmHeader)
	}

	var (
		qreg  string
		cregs = make(map[string]bool)
		c     = &Circuit{}
	)

	for _, stmt := range stmts[1:] {
		word, rest, _ := strings.Cut(stmt, " ")
		rest = strings.TrimSpace(rest)

		switch word {
		case "include":
			continue

		case "qreg":
			name, size, err := parseRegister(rest)
			if err != nil {
				return nil, err
			}
			if qreg != "" {
				return nil, fmt.Errorf("%w: more than one qreg", ErrInvalid)
			}
			if size != 1 {
				return nil, fmt.Errorf("%w: qreg %s has %d qubits, want 1",
					ErrInvalid, name, size)
			}
			qreg = name

		case "creg":
			name, size, err := parseRegister(rest)
			if err != nil {
				return nil, err
			}
			if size != 1 {
				return nil, fmt.Errorf("%w: creg %s has %d bits, want 1",
					ErrInvalid, name, size)
			}
			cregs[name] = true

		case "h", "x":
			if err := checkOperand(rest, map[string]bool{qreg: true}); err != nil {
				return nil, err
			}
			c.Ops = append(c.Ops, Op{Gate: Gate(strings.ToUpper(word))})

		case "measure":
			m := measurePattern.FindStringSubmatch(stmt)
			if m == nil {
				return nil, fmt.Errorf("%w: malformed measure %q", ErrInvalid, stmt)
			}
			if err := checkOperand(m[1], map[string]bool{qreg: true}); err != nil {
				return nil, err
			}
			if err := checkOperand(m[2], cregs); err != nil {
				return nil, err
			}
			key, _, _ := strings.Cut(m[2], "[")
			c.Ops = append(c.Ops, Op{Gate: Measure, Key: key})

		default:
			return nil, fmt.Errorf("%w: unsupported statement %q", ErrInvalid, stmt)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func splitStatements(src string) []string {
	var b strings.Builder
	for _, line := range strings.Split(src, "\n") {
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		b.WriteString(line)
		b.WriteByte(' ')
	}

	var stmts []string
	for _, s := range strings.Split(b.String(), ";") {
		s = strings.Join(strings.Fields(s), " ")
		if s != "" {
			stmts = append(stmts, s)
		}
	}

	return stmts
}

func parseRegister(decl string) (string, int, error) {
	m := regPattern.FindStringSubmatch(decl)
	if m == nil {
		return "", 0, fmt.Errorf("%w: malformed register %q", ErrInvalid, decl)
	}

	size, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, fmt.Errorf("%w: register size %q: %v", ErrInvalid, m[2], err)
	}

	return m[1], size, nil
}

// checkOperand requires operand to be index 0 of a declared register.
func checkOperand(operand string, declared map[string]bool) error {
	m := regPattern.FindStringSubmatch(operand)
	if m == nil {
		return fmt.Errorf("%w: malformed operand %q", ErrInvalid, operand)
	}
	if !declared[m[1]] {
		return fmt.Errorf("%w: undeclared register %q", ErrInvalid, m[1])
	}
	if m[2] != "0" {
		return fmt.Errorf("%w: index %s out of range for %s", ErrInvalid, m[2], m[1])
	}

	return nil
}
