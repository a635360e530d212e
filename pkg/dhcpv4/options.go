package dhcpv4

import "fmt"

// overloadFile and overloadSName are the bits of option 52 (RFC 1533 §16).
const (
	overloadFile   = 0x1
	overloadSName  = 0x2
	overloadEither = overloadFile | overloadSName
)

// ResultKind tags what Lookup found for a given option code.
type ResultKind int

const (
	// Absent means the option did not appear in the message at all.
	Absent ResultKind = iota
	// Malformed means the option appeared but failed the type/length rules
	// for its registered flags.
	Malformed
	// Present means the option appeared and decoded cleanly.
	Present
)

// OptionResult is the outcome of looking up one option code: a tagged union
// of Absent, Malformed (with Err explaining why) or Present (with Data
// holding the concatenated raw value bytes).
type OptionResult struct {
	Kind ResultKind
	Data []byte
	Err  error
}

// DecodedOptions is a parsed option set: RFC 3396 long-option concatenation
// already applied, RFC 1533 overload already resolved into File/SName, PAD
// and END already stripped. It holds only the raw value bytes per code —
// interpreting a value against its registered type happens in Lookup or in
// the RFC 3361/3397/3442/5969 sub-decoders.
type DecodedOptions map[OptionCode][]byte

// Lookup returns the typed result for code: Absent if it never appeared,
// Malformed if it appeared but violates the length rule for its registered
// type-flags, Present with the validated (and, for fixed-width types,
// length-corrected) bytes otherwise. An unregistered code is always
// considered well-formed if present, since it carries no known type.
func (d DecodedOptions) Lookup(code OptionCode) OptionResult {
	raw, ok := d[code]
	if !ok {
		return OptionResult{Kind: Absent}
	}
	def := LookupOptionDef(code)
	if def == nil {
		return OptionResult{Kind: Present, Data: raw}
	}
	data, err := validateLength(raw, def.Flags)
	if err != nil {
		return OptionResult{Kind: Malformed, Err: err}
	}
	return OptionResult{Kind: Present, Data: data}
}

// validateLength enforces the per-type length rules of §4.1: zero length
// always fails; STRING/RFC3442/RFC5969/unregistered accept any nonzero
// length; ADDRIPV4 combined with ARRAY requires a length that is a nonzero
// multiple of 4 (truncated down to the nearest multiple); a bare fixed-width
// scalar (UINT32/ADDRIPV4, UINT16, UINT8) requires exactly its width, else
// the value is truncated to fit if there are enough bytes, or the option is
// malformed if there are not.
func validateLength(raw []byte, flags OptionFlag) ([]byte, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("dhcpv4: zero-length option value")
	}

	switch {
	case flags.Has(FlagString), flags.Has(FlagRFC3442), flags.Has(FlagRFC5969), flags.Has(FlagRFC3361), flags.Has(FlagRFC3397):
		return raw, nil

	case flags.Has(FlagArray) && (flags.Has(FlagAddrIPv4) || flags.Has(FlagUint32)):
		n := len(raw) - len(raw)%4
		if n == 0 {
			return nil, fmt.Errorf("dhcpv4: array option shorter than one 4-byte element (%d bytes)", len(raw))
		}
		return raw[:n], nil

	case flags.Has(FlagArray) && flags.Has(FlagUint16):
		n := len(raw) - len(raw)%2
		if n == 0 {
			return nil, fmt.Errorf("dhcpv4: array option shorter than one 2-byte element (%d bytes)", len(raw))
		}
		return raw[:n], nil

	case flags.Has(FlagArray) && flags.Has(FlagUint8):
		return raw, nil

	case flags.Has(FlagUint32), flags.Has(FlagAddrIPv4):
		if len(raw) < 4 {
			return nil, fmt.Errorf("dhcpv4: option too short for 4-byte value: %d bytes", len(raw))
		}
		return raw[:4], nil

	case flags.Has(FlagUint16), flags.Has(FlagSint16):
		if len(raw) < 2 {
			return nil, fmt.Errorf("dhcpv4: option too short for 2-byte value: %d bytes", len(raw))
		}
		return raw[:2], nil

	case flags.Has(FlagUint8):
		return raw[:1], nil

	default:
		return raw, nil
	}
}

// ParseOptions walks the raw trailer of a decoded Message, resolving the RFC
// 1533 option overload into File/SName and concatenating RFC 3396
// same-code-repeated long options, and returns the fully assembled option
// set. Overload bits are each consumed exactly once and, when both are set,
// File is scanned before SName (RFC 1533 §16).
func ParseOptions(m *Message) (DecodedOptions, error) {
	out := make(DecodedOptions)

	overload, err := scanInto(m.Options, out)
	if err != nil {
		return nil, err
	}

	if overload&overloadFile != 0 {
		if _, err := scanInto(m.File[:], out); err != nil {
			return nil, fmt.Errorf("dhcpv4: overloaded file field: %w", err)
		}
	}
	if overload&overloadSName != 0 {
		if _, err := scanInto(m.SName[:], out); err != nil {
			return nil, fmt.Errorf("dhcpv4: overloaded sname field: %w", err)
		}
	}

	return out, nil
}

// scanInto walks one option-encoded byte slice (either the top-level
// Options trailer, or an overloaded File/SName field), appending each
// option's value bytes to out (concatenating repeats per RFC 3396), and
// returns the overload value seen, if any.
func scanInto(buf []byte, out DecodedOptions) (byte, error) {
	var overload byte
	i := 0
	for i < len(buf) {
		code := OptionCode(buf[i])
		if code == OptionPad {
			i++
			continue
		}
		if code == OptionEnd {
			break
		}
		if i+1 >= len(buf) {
			return overload, fmt.Errorf("dhcpv4: truncated option header at offset %d", i)
		}
		length := int(buf[i+1])
		start := i + 2
		end := start + length
		if end > len(buf) {
			return overload, fmt.Errorf("dhcpv4: option %d length %d exceeds buffer", code, length)
		}
		value := buf[start:end]

		if code == OptionOverload {
			if length >= 1 {
				overload |= value[0]
			}
		} else {
			out[code] = append(out[code], value...)
		}

		i = end
	}
	return overload, nil
}

// BuildOptions serializes the codes listed in order that have a value in
// opts into a single TLV-encoded trailer terminated with END, in the order
// given. A payload larger than 255 bytes is split into RFC 3396 repeats by
// appendOption.
func BuildOptions(order []OptionCode, opts map[OptionCode][]byte) []byte {
	var buf []byte
	for _, code := range order {
		val, ok := opts[code]
		if !ok {
			continue
		}
		buf = appendOption(buf, code, val)
	}
	buf = append(buf, byte(OptionEnd))
	return buf
}

// appendOption appends one option's TLV encoding to buf, splitting val into
// 255-byte chunks per RFC 3396 if it is longer than a single option value
// can hold.
func appendOption(buf []byte, code OptionCode, val []byte) []byte {
	if len(val) == 0 {
		return append(buf, byte(code), 0)
	}
	for len(val) > 0 {
		n := len(val)
		if n > 255 {
			n = 255
		}
		buf = append(buf, byte(code), byte(n))
		buf = append(buf, val[:n]...)
		val = val[n:]
	}
	return buf
}
