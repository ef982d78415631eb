package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenClass int

const (
	classOther tokenClass = iota
	classArabic
	classNeutral
)

var mirrored = map[rune]rune{
	'(': ')', ')': '(',
	'[': ']', ']': '[',
	'{': '}', '}': '{',
	'<': '>', '>': '<',
	'«': '»', '»': '«',
}

// FixDirection runs the default Normalizer's direction correction.
func FixDirection(s string) string {
	return defaultNormalizer.FixDirection(s)
}

// FixDirection restores natural reading order on lines whose Arabic words
// arrive in visual (reversed) order. Each line is judged on its own; lines
// that already read naturally are returned untouched.
//
// Within a reversed line every Arabic run has its word order reversed and
// each word its glyph order. Latin words and digit groups break runs and
// keep their place, and protected tokens keep their letters in order.
func (n *Normalizer) FixDirection(s string) string {
	if !HasArabic(s) {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if HasArabic(line) && n.lineReversed(line) {
			lines[i] = n.reverseRuns(line)
		}
	}
	return strings.Join(lines, "\n")
}

// lineReversed scores the Arabic words of a line. Teh marbuta and alef
// maksura only occur word-finally and the definite article only word-initially,
// so their position tells which way the word was written out. Raw
// presentation-form glyphs break a tie toward reversed.
func (n *Normalizer) lineReversed(line string) bool {
	var reversed, natural int
	presentation := false
	for _, tok := range strings.Fields(line) {
		if classify(tok) != classArabic {
			continue
		}
		for _, r := range tok {
			if isPresentationForm(r) {
				presentation = true
				break
			}
		}
		// the divine-name ligature composes to a word-initial article
		letters := arabicLetters(Compose(strings.ReplaceAll(tok, "\uFDF2", "")))
		if len(letters) < 2 || n.protected[string(letters)] {
			continue
		}
		if isFinalOnly(letters[0]) {
			reversed += 2
		}
		if isFinalOnly(letters[len(letters)-1]) {
			natural += 2
		}
		if len(letters) >= 4 && letters[0] == 'ا' && letters[1] == 'ل' {
			natural++
		}
	}
	return reversed > natural || (reversed == natural && presentation)
}

func (n *Normalizer) reverseRuns(line string) string {
	toks := strings.Fields(line)
	classes := make([]tokenClass, len(toks))
	for i, tok := range toks {
		classes[i] = classify(tok)
	}

	for i := 0; i < len(toks); {
		if classes[i] != classArabic {
			i++
			continue
		}
		// a run spans Arabic words and the punctuation between them
		last := i
		for j := i + 1; j < len(toks) && classes[j] != classOther; j++ {
			if classes[j] == classArabic {
				last = j
			}
		}
		run := toks[i : last+1]
		for a, b := 0, len(run)-1; a < b; a, b = a+1, b-1 {
			run[a], run[b] = run[b], run[a]
		}
		for k, tok := range run {
			run[k] = n.reverseToken(tok)
		}
		i = last + 1
	}
	return strings.Join(toks, " ")
}

func (n *Normalizer) reverseToken(tok string) string {
	start := strings.IndexFunc(tok, isWordRune)
	if start < 0 {
		return reverseAtoms(tok)
	}
	end := strings.LastIndexFunc(tok, isWordRune)
	_, size := utf8.DecodeRuneInString(tok[end:])
	end += size
	core := tok[start:end]
	if n.protected[Compose(core)] {
		return reverseAtoms(tok[end:]) + core + reverseAtoms(tok[:start])
	}
	return reverseAtoms(tok)
}

// reverseAtoms reverses s by glyph cluster. ASCII letter and digit groups move
// as a unit and combining marks stay with their base.
func reverseAtoms(s string) string {
	var atoms []string
	var cur strings.Builder
	ascii := false
	flush := func() {
		if cur.Len() > 0 {
			atoms = append(atoms, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if !ascii {
				flush()
			}
			ascii = true
			cur.WriteRune(r)
		case unicode.Is(unicode.Mn, r) && cur.Len() > 0 && !ascii:
			cur.WriteRune(r)
		default:
			flush()
			ascii = false
			if m, ok := mirrored[r]; ok {
				r = m
			}
			cur.WriteRune(r)
		}
	}
	flush()

	var b strings.Builder
	b.Grow(len(s))
	for i := len(atoms) - 1; i >= 0; i-- {
		b.WriteString(atoms[i])
	}
	return b.String()
}

func classify(tok string) tokenClass {
	alnum := false
	for _, r := range tok {
		if unicode.IsLetter(r) && IsArabic(r) {
			return classArabic
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum = true
		}
	}
	if alnum {
		return classOther
	}
	return classNeutral
}

func arabicLetters(s string) []rune {
	var out []rune
	for _, r := range s {
		if unicode.IsLetter(r) && IsArabic(r) {
			out = append(out, r)
		}
	}
	return out
}

func isFinalOnly(r rune) bool {
	return r == 'ة' || r == 'ى'
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
