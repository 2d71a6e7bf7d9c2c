package sam

// Range is an inclusive-start, exclusive-end byte range, [Start, End).
type Range struct {
	Start, End int
}

func (r Range) Empty() bool { return r.Start == r.End }

func (r Range) union(o Range) Range {
	lo, hi := r.Start, r.End
	if o.Start < lo {
		lo = o.Start
	}
	if o.End > hi {
		hi = o.End
	}
	return Range{lo, hi}
}

// EvaluateSide evaluates a single AddressSide against cur (the current
// range) using text for size/line/search queries, for the selection
// identified by selOrdinal (used to index per-selection marks).
func EvaluateSide(side AddressSide, text Text, cur Range, selOrdinal int) (Range, error) {
	switch side.Type {
	case ATInvalid:
		return cur, nil
	case ATByte:
		return Range{side.Number, side.Number}, nil
	case ATCharacter:
		switch side.Character {
		case '.':
			return cur, nil
		case '$':
			return Range{text.Size(), text.Size()}, nil
		case '%':
			return Range{0, text.Size()}, nil
		}
		return cur, nil
	case ATLine:
		if side.Number == 0 {
			return Range{0, 0}, nil
		}
		start := text.LinePos(side.Number)
		end := text.LinePos(side.Number + 1)
		return Range{start, end}, nil
	case ATMark:
		pos, ok := text.Mark(side.Mark, selOrdinal)
		if !ok {
			return Range{}, nil
		}
		return Range{pos, pos}, nil
	case ATRegexForward:
		m := text.SearchForward(side.Regex, cur.End)
		if m == nil {
			return Range{}, newError(ErrAddress, 0, "no match for regexp")
		}
		return Range{m[0], m[1]}, nil
	case ATRegexBackward:
		m := text.SearchBackward(side.Regex, cur.Start)
		if m == nil {
			return Range{}, newError(ErrAddress, 0, "no match for regexp")
		}
		return Range{m[0], m[1]}, nil
	}
	return cur, nil
}

// EvaluateAddress evaluates a full Address against text for the cursor at
// selOrdinal whose current range is cur, per §4.3's combiner semantics.
//
// ',' takes the union of the left side (default [0,0]) and the right side
// (default [size,size]). ';' behaves like ',' except the right side is
// evaluated with the left side established as the new current range —
// this is how "<addr1>;<addr2>" lets addr2's regex search start from
// where addr1 landed. '+'/'-' move forward/backward by whole lines from
// the end/start of the current range (the left side, if present, becomes
// that current range first) — resolved from original_source/sam.c's
// evaluate_address, which computes from the live current range rather
// than a separately tracked "previous address".
func EvaluateAddress(addr Address, text Text, cur Range, selOrdinal int) (Range, error) {
	if addr.IsEmpty() {
		return cur, nil
	}

	switch addr.Delim {
	case ',', ';':
		left := Range{0, 0}
		if addr.HasLeft {
			l, err := EvaluateSide(addr.Left, text, cur, selOrdinal)
			if err != nil {
				return Range{}, err
			}
			left = l
		}
		rightCur := cur
		if addr.Delim == ';' && addr.HasLeft {
			rightCur = left
		}
		right := Range{text.Size(), text.Size()}
		if addr.Right.Type != ATInvalid {
			r, err := EvaluateSide(addr.Right, text, rightCur, selOrdinal)
			if err != nil {
				return Range{}, err
			}
			right = r
		}
		if !addr.HasLeft && addr.Right.Type == ATInvalid {
			return Range{0, text.Size()}, nil
		}
		return left.union(right), nil

	case '+', '-':
		base := cur
		if addr.HasLeft {
			l, err := EvaluateSide(addr.Left, text, cur, selOrdinal)
			if err != nil {
				return Range{}, err
			}
			base = l
		}
		n := 1
		if addr.Right.Type == ATLine {
			n = addr.Right.Number
		} else if addr.Right.Type != ATInvalid {
			r, err := EvaluateSide(addr.Right, text, base, selOrdinal)
			if err != nil {
				return Range{}, err
			}
			n = r.End - r.Start
			if n <= 0 {
				n = 1
			}
		}
		anchor := base.End
		if addr.Delim == '-' {
			anchor = base.Start
		}
		line := text.LineNumber(anchor)
		if addr.Delim == '+' {
			line += n
		} else {
			line -= n
			if line < 1 {
				line = 1
			}
		}
		start := text.LinePos(line)
		end := text.LinePos(line + 1)
		return Range{start, end}, nil
	}

	// No delimiter: a lone side (left or right) stands for itself.
	if addr.HasLeft {
		return EvaluateSide(addr.Left, text, cur, selOrdinal)
	}
	return EvaluateSide(addr.Right, text, cur, selOrdinal)
}
