package prin

import (
	"math"
	"strconv"
	"strings"
)

func formatUintDigits(u uint64, base int) string {
	return strconv.FormatUint(u, base)
}

/* English number spelling for ~r */

var onesWords = []string{
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight",
	"nine", "ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen",
	"sixteen", "seventeen", "eighteen", "nineteen",
}

var tensWords = []string{
	"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy",
	"eighty", "ninety",
}

var scaleWords = []string{
	"", " thousand", " million", " billion", " trillion", " quadrillion",
	" quintillion",
}

func englishCardinal(n int64) string {
	if n == 0 {
		return "zero"
	}
	var b strings.Builder
	u := absInt64(n)
	if n < 0 {
		b.WriteString("minus ")
	}

	// Split into groups of three digits, most significant first.
	var groups []uint64
	for u > 0 {
		groups = append(groups, u%1000)
		u /= 1000
	}
	first := true
	for i := len(groups) - 1; i >= 0; i-- {
		g := groups[i]
		if g == 0 {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		b.WriteString(englishGroup(int(g)))
		b.WriteString(scaleWords[i])
		first = false
	}
	return b.String()
}

func englishGroup(n int) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, onesWords[n/100]+" hundred")
		n %= 100
	}
	switch {
	case n == 0:
	case n < 20:
		parts = append(parts, onesWords[n])
	default:
		word := tensWords[n/10]
		if n%10 != 0 {
			word += "-" + onesWords[n%10]
		}
		parts = append(parts, word)
	}
	return strings.Join(parts, " ")
}

var ordinalIrregular = map[string]string{
	"one":    "first",
	"two":    "second",
	"three":  "third",
	"five":   "fifth",
	"eight":  "eighth",
	"nine":   "ninth",
	"twelve": "twelfth",
}

func englishOrdinal(n int64) string {
	if n == 0 {
		return "zeroth"
	}
	cardinal := englishCardinal(n)

	// The ordinal form only changes the final word.
	cut := strings.LastIndexAny(cardinal, " -")
	head, last := "", cardinal
	if cut >= 0 {
		head, last = cardinal[:cut+1], cardinal[cut+1:]
	}
	switch {
	case ordinalIrregular[last] != "":
		last = ordinalIrregular[last]
	case strings.HasSuffix(last, "y"):
		last = last[:len(last)-1] + "ieth"
	default:
		last += "th"
	}
	return head + last
}

/* Roman numerals for ~@r and ~:@r */

var romanPairs = []struct {
	value int64
	text  string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

var oldRomanPairs = []struct {
	value int64
	text  string
}{
	{1000, "M"}, {500, "D"}, {100, "C"}, {50, "L"},
	{10, "X"}, {5, "V"}, {1, "I"},
}

// romanNumeral renders 1..3999; out-of-range values fall back to decimal.
func romanNumeral(n int64, old bool) string {
	if n < 1 || n > 3999 {
		return strconv.FormatInt(n, 10)
	}
	pairs := romanPairs
	if old {
		pairs = oldRomanPairs
	}
	var b strings.Builder
	for _, p := range pairs {
		for n >= p.value {
			b.WriteString(p.text)
			n -= p.value
		}
	}
	return b.String()
}

/* ~f fixed-format floating point */

func (x *exec) runFixedFloat(d *directive) error {
	arg, err := x.nextArg(d)
	if err != nil {
		return err
	}
	w, err := x.intParam(d, 0, 0)
	if err != nil {
		return err
	}
	dec, err := x.intParam(d, 1, -1)
	if err != nil {
		return err
	}
	k, err := x.intParam(d, 2, 0)
	if err != nil {
		return err
	}
	overflowchar, err := x.charParam(d, 3, 0)
	if err != nil {
		return err
	}
	padchar, err := x.charParam(d, 4, ' ')
	if err != nil {
		return err
	}

	f, ok := toFloat(arg)
	if !ok {
		str, err := x.renderValue(arg, false)
		if err != nil {
			return err
		}
		x.s.Text(padString(str, w, 1, 0, padchar, true))
		return nil
	}
	f *= math.Pow10(k)

	str := fixedDecimal(f, dec, d.at)
	if w > 0 && len(str) > w {
		str = shrinkFixed(str, w, dec < 0)
		if len(str) > w {
			if overflowchar != 0 {
				x.s.Text(strings.Repeat(string(overflowchar), w))
				return nil
			}
			x.s.Text(str)
			return nil
		}
	}
	x.s.Text(padString(str, w, 1, 0, padchar, true))
	return nil
}

// fixedDecimal formats f in non-exponential notation with dec digits after
// the point (-1 for shortest), always keeping a decimal point.
func fixedDecimal(f float64, dec int, forceSign bool) string {
	str := strconv.FormatFloat(f, 'f', dec, 64)
	if !strings.ContainsRune(str, '.') {
		str += ".0"
	}
	if forceSign && !strings.HasPrefix(str, "-") {
		str = "+" + str
	}
	return str
}

// shrinkFixed tries to fit an over-wide fixed-point string into w columns by
// rounding away decimals and dropping a leading zero.
func shrinkFixed(str string, w int, flexible bool) string {
	if flexible {
		if dot := strings.IndexByte(str, '.'); dot >= 0 {
			keep := w - dot - 1
			if keep >= 0 {
				sign := ""
				rest := str
				if rest[0] == '+' || rest[0] == '-' {
					sign, rest = rest[:1], rest[1:]
				}
				f, err := strconv.ParseFloat(rest, 64)
				if err == nil {
					dec := w - len(sign) - strings.IndexByte(rest, '.') - 1
					if dec >= 0 {
						str = sign + strconv.FormatFloat(f, 'f', dec, 64)
					}
				}
			}
		}
	}
	if len(str) > w {
		for _, prefix := range []string{"0.", "+0.", "-0."} {
			if strings.HasPrefix(str, prefix) {
				str = prefix[:len(prefix)-2] + str[len(prefix)-1:]
				break
			}
		}
	}
	return str
}

/* ~e exponential floating point */

func (x *exec) runExpFloat(d *directive) error {
	arg, err := x.nextArg(d)
	if err != nil {
		return err
	}
	w, err := x.intParam(d, 0, 0)
	if err != nil {
		return err
	}
	dec, err := x.intParam(d, 1, -1)
	if err != nil {
		return err
	}
	expDigits, err := x.intParam(d, 2, 0)
	if err != nil {
		return err
	}
	overflowchar, err := x.charParam(d, 4, 0)
	if err != nil {
		return err
	}
	padchar, err := x.charParam(d, 5, ' ')
	if err != nil {
		return err
	}
	expchar, err := x.charParam(d, 6, 'E')
	if err != nil {
		return err
	}

	f, ok := toFloat(arg)
	if !ok {
		str, err := x.renderValue(arg, false)
		if err != nil {
			return err
		}
		x.s.Text(padString(str, w, 1, 0, padchar, true))
		return nil
	}

	str := expDecimal(f, dec, expDigits, expchar, d.at)
	if w > 0 && len(str) > w {
		if overflowchar != 0 {
			x.s.Text(strings.Repeat(string(overflowchar), w))
			return nil
		}
	}
	x.s.Text(padString(str, w, 1, 0, padchar, true))
	return nil
}

func expDecimal(f float64, dec, expDigits int, expchar rune, forceSign bool) string {
	str := strconv.FormatFloat(f, 'e', dec, 64)

	// Split mantissa and exponent, then rebuild with the requested
	// exponent character and digit count.
	i := strings.IndexByte(str, 'e')
	mantissa, exp := str[:i], str[i+1:]
	if !strings.ContainsRune(mantissa, '.') {
		mantissa += ".0"
	}
	sign := "+"
	if exp[0] == '+' || exp[0] == '-' {
		sign, exp = string(exp[0]), exp[1:]
	}
	exp = strings.TrimLeft(exp, "0")
	if exp == "" {
		exp = "0"
	}
	for len(exp) < expDigits {
		exp = "0" + exp
	}
	if forceSign && !strings.HasPrefix(mantissa, "-") {
		mantissa = "+" + mantissa
	}
	return mantissa + string(expchar) + sign + exp
}

/* ~g general floating point */

func (x *exec) runGeneralFloat(d *directive) error {
	arg, err := x.nextArg(d)
	if err != nil {
		return err
	}
	f, ok := toFloat(arg)
	x.cur.back(1)
	if !ok {
		return x.runFixedFloat(d)
	}

	// Magnitudes near one print fixed, everything else exponential.
	abs := math.Abs(f)
	if f == 0 || (abs >= 1e-4 && abs < 1e7) {
		return x.runFixedFloat(d)
	}
	return x.runExpFloat(d)
}

/* ~$ currency */

func (x *exec) runCurrency(d *directive) error {
	arg, err := x.nextArg(d)
	if err != nil {
		return err
	}
	dec, err := x.intParam(d, 0, 2)
	if err != nil {
		return err
	}
	intDigits, err := x.intParam(d, 1, 1)
	if err != nil {
		return err
	}
	w, err := x.intParam(d, 2, 0)
	if err != nil {
		return err
	}
	padchar, err := x.charParam(d, 3, ' ')
	if err != nil {
		return err
	}

	f, ok := toFloat(arg)
	if !ok {
		str, err := x.renderValue(arg, false)
		if err != nil {
			return err
		}
		x.s.Text(padString(str, w, 1, 0, padchar, true))
		return nil
	}

	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	} else if d.at {
		sign = "+"
	}

	num := strconv.FormatFloat(f, 'f', dec, 64)
	if dot := strings.IndexByte(num, '.'); dot >= 0 && dot < intDigits {
		num = strings.Repeat("0", intDigits-dot) + num
	} else if dot < 0 && len(num) < intDigits {
		num = strings.Repeat("0", intDigits-len(num)) + num
	}

	padded := len(sign) + len(num)
	pad := ""
	if w > padded {
		pad = strings.Repeat(string(padchar), w-padded)
	}
	if d.colon {
		// Sign before padding.
		x.s.Text(sign + pad + num)
	} else {
		x.s.Text(pad + sign + num)
	}
	return nil
}
