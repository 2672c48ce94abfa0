// Package format renders numbers, byte counts, durations and version strings
// for dashboard widgets. Every function is pure.
package format

import (
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Sentinel is shown when a value is absent or invalid.
const Sentinel = "--"

var (
	hashrateUnits = []string{"H/s", "KH/s", "MH/s", "GH/s", "TH/s", "PH/s"}
	byteUnits     = []string{"B", "KB", "MB", "GB", "TB"}

	anchoredVersion = regexp.MustCompile(`:([\d.]+)`)
	looseVersion    = regexp.MustCompile(`([\d.]+)`)
)

// fixed formats v with a fixed number of decimals. Exact ties round away from
// zero; strconv alone would round them to even.
func fixed(v float64, decimals int) string {
	if isTie(v, decimals) {
		v = math.Nextafter(v, math.Copysign(math.Inf(1), v))
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// isTie reports whether v lies exactly halfway between two values with the
// given number of decimals.
func isTie(v float64, decimals int) bool {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) || decimals < 0 {
		return false
	}
	const prec = 512
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	x := new(big.Float).SetPrec(prec).SetFloat64(math.Abs(v))
	x.Mul(x, new(big.Float).SetPrec(prec).SetInt(scale))
	whole, _ := x.Int(nil)
	x.Sub(x, new(big.Float).SetPrec(prec).SetInt(whole))
	return x.Cmp(big.NewFloat(0.5)) == 0
}

// Number scales n to a K/M/B suffix with two decimals.
func Number(n float64) string {
	switch {
	case n >= 1e9:
		return fixed(n/1e9, 2) + "B"
	case n >= 1e6:
		return fixed(n/1e6, 2) + "M"
	case n >= 1e3:
		return fixed(n/1e3, 2) + "K"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Difficulty is like Number with one decimal and a space before the suffix.
func Difficulty(n float64) string {
	switch {
	case n >= 1e9:
		return fixed(n/1e9, 1) + " B"
	case n >= 1e6:
		return fixed(n/1e6, 1) + " M"
	case n >= 1e3:
		return fixed(n/1e3, 1) + " K"
	}
	return fixed(n, 1)
}

// Hashrate scales hashes per second through H/s..PH/s.
func Hashrate(hps float64) string {
	if math.IsNaN(hps) || math.IsInf(hps, 0) || hps <= 0 {
		return Sentinel
	}
	i := 0
	for hps >= 1000 && i < len(hashrateUnits)-1 {
		hps /= 1000
		i++
	}
	return fixed(hps, 2) + " " + hashrateUnits[i]
}

// CoinAmount renders a coin value with two decimals.
func CoinAmount(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Sentinel
	}
	return fixed(amount, 2)
}

// BlockHeight groups digits in threes with commas.
func BlockHeight(n int64) string {
	digits := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, digits = "-", digits[1:]
	}
	if len(digits) <= 3 {
		return sign + digits
	}
	var b strings.Builder
	b.WriteString(sign)
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > len(sign) {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Bytes scales a byte count by powers of 1024 up to TB, trimming trailing zeros.
// Zero, negative and non-finite counts render as "0 B".
func Bytes(n float64) string {
	if n <= 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return "0 B"
	}
	i := int(math.Floor(math.Log(n) / math.Log(1024)))
	if i < 0 {
		i = 0
	}
	if i > len(byteUnits)-1 {
		i = len(byteUnits) - 1
	}
	v, _ := strconv.ParseFloat(fixed(n/math.Pow(1024, float64(i)), 2), 64)
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + byteUnits[i]
}

// Duration shows the two largest units of a span in seconds: "Xd Yh", "Xh Ym" or "Xm".
func Duration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	days := seconds / 86400
	hours := seconds % 86400 / 3600
	minutes := seconds % 3600 / 60
	switch {
	case days > 0:
		return strconv.FormatInt(days, 10) + "d " + strconv.FormatInt(hours, 10) + "h"
	case hours > 0:
		return strconv.FormatInt(hours, 10) + "h " + strconv.FormatInt(minutes, 10) + "m"
	}
	return strconv.FormatInt(minutes, 10) + "m"
}

// Time renders a unix timestamp as a local time of day.
func Time(unix int64) string {
	return TimeIn(unix, time.Local)
}

// TimeIn renders a unix timestamp as a time of day in loc.
func TimeIn(unix int64, loc *time.Location) string {
	return time.Unix(unix, 0).In(loc).Format("3:04:05 PM")
}

// DateTime renders the "last updated" stamp.
func DateTime(t time.Time) string {
	return t.Format("1/2/2006, 3:04:05 PM")
}

// Percent renders p with a fixed number of decimals and a percent sign.
func Percent(p float64, decimals int) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		p = 0
	}
	return fixed(p, decimals) + "%"
}

// Version extracts the first dotted number run from a user agent and prefixes it
// with "v". When anchored, the run must follow a colon as in "/Palladium:2.0.0/".
// Without a match the raw string is returned; an empty string becomes "Unknown".
func Version(raw string, anchored bool) string {
	if raw == "" {
		return "Unknown"
	}
	re := looseVersion
	if anchored {
		re = anchoredVersion
	}
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return raw
	}
	return "v" + m[1]
}
